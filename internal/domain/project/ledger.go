package project

import "fmt"

// The request ledger is the Requests slice on the aggregate: an
// append-only log whose entries change only in their Status field,
// exactly once, from pending to a terminal state. Pending views are
// filters over the log, never a separately maintained index.

// AppendRequest appends a ledger entry. Entry ids (TaskID) must be
// unique within the project across the whole log, terminal entries
// included.
func (p *Project) AppendRequest(r Request) error {
	for i := range p.Requests {
		if p.Requests[i].TaskID == r.TaskID {
			return fmt.Errorf("%w: a request for %s already exists", ErrValidation, r.TaskID)
		}
	}
	p.Requests = append(p.Requests, r)
	return nil
}

// PendingRequests returns the pending subsequence of the ledger in
// insertion order, oldest first.
func (p *Project) PendingRequests() []Request {
	var pending []Request
	for _, r := range p.Requests {
		if r.Status == RequestPending {
			pending = append(pending, r)
		}
	}
	return pending
}

// RequestSelector locates a ledger entry: task-proof entries by task id,
// final-report entries by the submitting member's email.
type RequestSelector struct {
	TaskID      string
	AuthorEmail string
}

// findRequest returns the pending entry matching sel. A match that has
// already reached a terminal state reports ErrAlreadyResolved; no match
// at all reports ErrNotFound.
func (p *Project) findRequest(sel RequestSelector) (*Request, error) {
	var terminal *Request
	for i := range p.Requests {
		r := &p.Requests[i]
		if !sel.matches(r) {
			continue
		}
		if r.Status == RequestPending {
			return r, nil
		}
		terminal = r
	}
	if terminal != nil {
		return nil, fmt.Errorf("%w: request %s is %s", ErrAlreadyResolved, terminal.TaskID, terminal.Status)
	}
	return nil, fmt.Errorf("%w: no matching request", ErrNotFound)
}

func (sel RequestSelector) matches(r *Request) bool {
	if sel.TaskID != "" {
		return r.TaskID == sel.TaskID
	}
	return r.Kind == KindFinalReport && r.AuthorEmail == sel.AuthorEmail
}

// pendingFinalReports returns pointers to the pending final-report
// entries, used by the admin completion gate.
func (p *Project) pendingFinalReports() []*Request {
	var out []*Request
	for i := range p.Requests {
		r := &p.Requests[i]
		if r.Kind == KindFinalReport && r.Status == RequestPending {
			out = append(out, r)
		}
	}
	return out
}

// PendingFinalReport returns the pending final-report entry when exactly
// one exists, or nil.
func (p *Project) PendingFinalReport() *Request {
	reports := p.pendingFinalReports()
	if len(reports) == 1 {
		return reports[0]
	}
	return nil
}
