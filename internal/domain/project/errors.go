package project

import "errors"

var (
	// ErrNotFound indicates a project, member, task, or request is absent.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the actor lacks the required role or ownership.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState indicates the operation is not legal from the current status.
	ErrInvalidState = errors.New("invalid project state")
	// ErrUnknownMember indicates a roster email resolves to no registered identity.
	ErrUnknownMember = errors.New("unknown member")
	// ErrIncompleteAssignment indicates a launch with task-less eligible members.
	ErrIncompleteAssignment = errors.New("member has no assigned tasks")
	// ErrAlreadyResolved indicates a duplicate resolution of a terminal request.
	ErrAlreadyResolved = errors.New("request already resolved")
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("invalid input")
)
