package project

import (
	"fmt"
	"strings"
)

// ValidateCreateInput validates fields required to create a project.
func ValidateCreateInput(req CreateRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(req.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrValidation)
	}
	if strings.TrimSpace(req.Company) == "" {
		return fmt.Errorf("%w: company is required", ErrValidation)
	}
	if strings.TrimSpace(req.Deadline) == "" {
		return fmt.Errorf("%w: deadline is required", ErrValidation)
	}
	return ValidateRoster(req.Members)
}

// ValidateRoster validates member inputs. An empty role is allowed and
// defaults to developer; admin may not be requested explicitly since the
// creator always takes that seat.
func ValidateRoster(members []MemberInput) error {
	for _, m := range members {
		if strings.TrimSpace(m.Email) == "" {
			return fmt.Errorf("%w: member email is required", ErrValidation)
		}
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("%w: member name is required (%s)", ErrValidation, m.Email)
		}
		if m.Role == "" {
			continue
		}
		if !m.Role.Valid() {
			return fmt.Errorf("%w: unknown role %q for %s", ErrValidation, m.Role, m.Email)
		}
		if m.Role == RoleAdmin {
			return fmt.Errorf("%w: admin role is reserved for the creator", ErrValidation)
		}
	}
	return nil
}

// ValidateTasks validates task inputs before assignment.
func ValidateTasks(tasks []TaskInput) error {
	if len(tasks) == 0 {
		return fmt.Errorf("%w: at least one task is required", ErrValidation)
	}
	for _, t := range tasks {
		if strings.TrimSpace(t.Title) == "" {
			return fmt.Errorf("%w: task title is required", ErrValidation)
		}
		if t.Weight < 0 || t.Weight > 100 {
			return fmt.Errorf("%w: task weight %d out of range", ErrValidation, t.Weight)
		}
	}
	return nil
}
