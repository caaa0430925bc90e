package project

import "time"

// Status is the project lifecycle state.
type Status string

const (
	StatusPlanning   Status = "planning"
	StatusInProgress Status = "in-progress"
	StatusSubmitted  Status = "submitted"
	StatusCompleted  Status = "completed"
)

// Role identifies a member's function on the project.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleLead      Role = "lead"
	RoleDesigner  Role = "designer"
	RoleDeveloper Role = "developer"
	RoleTester    Role = "tester"
	RoleAnalyst   Role = "analyst"
	RoleArchitect Role = "architect"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleLead, RoleDesigner, RoleDeveloper, RoleTester, RoleAnalyst, RoleArchitect:
		return true
	}
	return false
}

// Oversight reports whether the role supervises rather than delivers.
// Oversight members carry no weight in the project progress average.
func (r Role) Oversight() bool {
	return r == RoleAdmin || r == RoleLead
}

// TaskStatus is the approval state of a single task.
type TaskStatus string

const (
	TaskUnsubmitted TaskStatus = "unsubmitted"
	TaskSubmitted   TaskStatus = "submitted"
	TaskApproved    TaskStatus = "approved"
	TaskRejected    TaskStatus = "rejected"
)

// RequestStatus is the resolution state of a ledger entry.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// RequestKind discriminates the two approval surfaces sharing the ledger.
type RequestKind string

const (
	KindTaskProof   RequestKind = "task-proof"
	KindFinalReport RequestKind = "final-report"
)

// FinalReportTitle is the snapshot title carried by final-report entries.
const FinalReportTitle = "Final Project Submission"

// Task is a unit of deliverable work owned by exactly one member.
// Weight is the percentage the task contributes toward its owner's
// completion, not the task's own completion state.
type Task struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Weight   int        `json:"weight"`
	Deadline string     `json:"deadline,omitempty"`
	ProofRef string     `json:"proof_ref,omitempty"`
	Status   TaskStatus `json:"status"`
}

// Member is a project participant. Email is the member identity and is
// unique within a project. Progress is derived, never authored.
type Member struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Progress int    `json:"progress"`
	Tasks    []Task `json:"tasks"`
}

// Request is an append-only ledger entry for an approval decision.
// TaskID doubles as the ledger id: the owning task's id for task-proof
// entries, a synthetic time-based id for final-report entries. It
// references the task weakly; TaskTitle is a snapshot kept for audit
// even if the task is later mutated.
type Request struct {
	Kind        RequestKind   `json:"kind"`
	AuthorEmail string        `json:"author_email"`
	TaskID      string        `json:"task_id"`
	TaskTitle   string        `json:"task_title"`
	ProofRef    string        `json:"proof_ref,omitempty"`
	Description string        `json:"description,omitempty"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Project is the aggregate root and the unit of persistence. It
// exclusively owns its members (and through them their tasks) and its
// request ledger. Revision is an optimistic concurrency stamp bumped by
// the repository on every save.
type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Company     string    `json:"company"`
	Deadline    string    `json:"deadline"`
	Status      Status    `json:"status"`
	Progress    float64   `json:"progress"`
	Members     []Member  `json:"members"`
	Requests    []Request `json:"requests"`
	ReportRef   string    `json:"report_ref,omitempty"`
	CreatedBy   string    `json:"created_by"`
	Revision    int64     `json:"revision"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FindMember returns a pointer into the member slice, or nil.
func (p *Project) FindMember(email string) *Member {
	for i := range p.Members {
		if p.Members[i].Email == email {
			return &p.Members[i]
		}
	}
	return nil
}

// Admin returns the member holding the admin role, or nil.
func (p *Project) Admin() *Member {
	for i := range p.Members {
		if p.Members[i].Role == RoleAdmin {
			return &p.Members[i]
		}
	}
	return nil
}

// FindTask returns the task with the given id within m, or nil.
func (m *Member) FindTask(taskID string) *Task {
	for i := range m.Tasks {
		if m.Tasks[i].ID == taskID {
			return &m.Tasks[i]
		}
	}
	return nil
}
