package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"stagegate/internal/domain/identity"
	"stagegate/internal/repository"
)

// Service is the workflow engine. It enforces the project lifecycle
// (planning → in-progress → submitted → completed), gates every status
// change behind the request ledger, and keeps the derived progress
// fields consistent with the aggregation formula.
//
// Mutating operations on the same project are serialized through a
// per-project mutex: resolution is a read-modify-write across request,
// task, member, and project progress, and concurrent resolutions for the
// same member must not lose contributions to a last-write-wins race.
// Reads go straight to the repository, which returns a consistent
// snapshot of the aggregate.
type Service struct {
	repo      Repository
	directory Directory
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a new workflow service.
func NewService(repo Repository, directory Directory, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// MemberInput describes a roster entry. An empty role defaults to
// developer.
type MemberInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Company     string        `json:"company"`
	Deadline    string        `json:"deadline"`
	Members     []MemberInput `json:"members"`
}

// TaskInput describes a task to assign to a member.
type TaskInput struct {
	Title    string `json:"title"`
	Weight   int    `json:"weight"`
	Deadline string `json:"deadline"`
}

// Decision is the outcome of a request resolution.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// FinalApproval summarizes a project awaiting the admin's completion
// decision.
type FinalApproval struct {
	ProjectID   string `json:"project_id"`
	Title       string `json:"title"`
	Status      Status `json:"status"`
	ProofRef    string `json:"proof_ref"`
	Description string `json:"description"`
	LeadEmail   string `json:"lead_email"`
}

// Create validates the roster against the directory and persists a new
// project in planning, with the creator seated as admin.
func (s *Service) Create(ctx context.Context, creatorEmail string, req CreateRequest) (*Project, error) {
	if err := ValidateCreateInput(req); err != nil {
		return nil, err
	}

	creator, err := s.lookup(ctx, creatorEmail)
	if err != nil {
		return nil, err
	}

	members := []Member{{
		Name:  creator.Name,
		Email: creator.Email,
		Role:  RoleAdmin,
	}}
	seen := map[string]bool{creator.Email: true}
	for _, in := range req.Members {
		email := strings.ToLower(strings.TrimSpace(in.Email))
		if seen[email] {
			continue
		}
		if _, err := s.lookup(ctx, email); err != nil {
			return nil, err
		}
		role := in.Role
		if role == "" {
			role = RoleDeveloper
		}
		members = append(members, Member{Name: in.Name, Email: email, Role: role})
		seen[email] = true
	}

	now := time.Now()
	proj := &Project{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Company:     req.Company,
		Deadline:    req.Deadline,
		Status:      StatusPlanning,
		Members:     members,
		CreatedBy:   creator.Email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, proj); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	return proj, nil
}

// Launch moves a planning project to in-progress with its final roster.
// The roster is de-duplicated by email, the admin seat is always kept,
// and every eligible (non-oversight) member must already hold at least
// one task.
func (s *Service) Launch(ctx context.Context, projectID string, roster []MemberInput) (*Project, error) {
	unlock := s.lock(projectID)
	defer unlock()

	proj, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if proj.Status != StatusPlanning {
		return nil, fmt.Errorf("%w: cannot launch a %s project", ErrInvalidState, proj.Status)
	}
	if err := ValidateRoster(roster); err != nil {
		return nil, err
	}

	admin := proj.Admin()
	if admin == nil {
		return nil, fmt.Errorf("%w: project has no admin", ErrInvalidState)
	}

	var final []Member
	seen := map[string]bool{admin.Email: true}
	for _, in := range roster {
		email := strings.ToLower(strings.TrimSpace(in.Email))
		if seen[email] {
			continue
		}
		seen[email] = true
		// Existing members keep their assigned tasks; roster entries
		// unknown to the project join with an empty task list.
		if existing := proj.FindMember(email); existing != nil {
			final = append(final, *existing)
			continue
		}
		role := in.Role
		if role == "" {
			role = RoleDeveloper
		}
		final = append(final, Member{Name: in.Name, Email: email, Role: role})
	}
	final = append(final, *admin)

	for _, m := range final {
		if m.Role.Oversight() {
			continue
		}
		if len(m.Tasks) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrIncompleteAssignment, m.Email)
		}
	}

	proj.Members = final
	proj.Status = StatusInProgress
	if err := s.save(ctx, proj); err != nil {
		return nil, err
	}

	return proj, nil
}

// AssignTasks appends unsubmitted tasks to a member. Assignment stays
// legal after launch; new tasks start unapproved and trigger no progress
// recompute.
func (s *Service) AssignTasks(ctx context.Context, projectID, memberEmail string, tasks []TaskInput) (*Project, error) {
	unlock := s.lock(projectID)
	defer unlock()

	proj, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	member := proj.FindMember(memberEmail)
	if member == nil {
		return nil, fmt.Errorf("%w: member %s", ErrNotFound, memberEmail)
	}
	if err := ValidateTasks(tasks); err != nil {
		return nil, err
	}

	for _, in := range tasks {
		member.Tasks = append(member.Tasks, Task{
			ID:       uuid.NewString(),
			Title:    in.Title,
			Weight:   in.Weight,
			Deadline: in.Deadline,
			Status:   TaskUnsubmitted,
		})
	}

	if err := s.save(ctx, proj); err != nil {
		return nil, err
	}

	return proj, nil
}

// SubmitTaskProof marks the actor's own task as submitted, records the
// proof reference, and appends a pending ledger entry snapshotting the
// task title.
func (s *Service) SubmitTaskProof(ctx context.Context, projectID, actorEmail, taskID, description, proofRef string) (*Project, error) {
	unlock := s.lock(projectID)
	defer unlock()

	proj, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if proj.Status != StatusInProgress {
		return nil, fmt.Errorf("%w: project is %s", ErrInvalidState, proj.Status)
	}
	member := proj.FindMember(actorEmail)
	if member == nil {
		return nil, fmt.Errorf("%w: %s is not a project member", ErrForbidden, actorEmail)
	}
	if strings.TrimSpace(proofRef) == "" {
		return nil, fmt.Errorf("%w: proof reference is required", ErrValidation)
	}

	task := member.FindTask(taskID)
	if task == nil {
		if owner := taskOwner(proj, taskID); owner != nil {
			return nil, fmt.Errorf("%w: task %s belongs to %s", ErrForbidden, taskID, owner.Email)
		}
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}

	task.Status = TaskSubmitted
	task.ProofRef = proofRef

	err = proj.AppendRequest(Request{
		Kind:        KindTaskProof,
		AuthorEmail: actorEmail,
		TaskID:      task.ID,
		TaskTitle:   task.Title,
		ProofRef:    proofRef,
		Description: description,
		Status:      RequestPending,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, proj); err != nil {
		return nil, err
	}

	return proj, nil
}

// SubmitFinalReport appends a pending final-report ledger entry on
// behalf of the lead. The project status does not change here: the
// lead-to-admin handoff is itself a reviewed action, and the status
// moves only when the entry is approved.
func (s *Service) SubmitFinalReport(ctx context.Context, projectID, leadEmail, proofRef string) (*Project, error) {
	unlock := s.lock(projectID)
	defer unlock()

	proj, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	member := proj.FindMember(leadEmail)
	if member == nil || member.Role != RoleLead {
		return nil, fmt.Errorf("%w: only the lead can submit the final report", ErrForbidden)
	}
	if strings.TrimSpace(proofRef) == "" {
		return nil, fmt.Errorf("%w: report reference is required", ErrValidation)
	}

	err = proj.AppendRequest(Request{
		Kind:        KindFinalReport,
		AuthorEmail: leadEmail,
		TaskID:      fmt.Sprintf("final-submission-%d", time.Now().UnixNano()),
		TaskTitle:   FinalReportTitle,
		ProofRef:    proofRef,
		Description: "Lead submitted the final project report for admin approval",
		Status:      RequestPending,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, proj); err != nil {
		return nil, err
	}

	return proj, nil
}

// ResolveRequest settles a pending ledger entry. Approving a task-proof
// entry approves the task and recomputes member and project progress;
// approving a final-report entry moves the project to submitted and
// stores the report reference. Rejection marks the entry (and for
// task-proof entries, the task) rejected and leaves progress untouched.
// A request resolves exactly once: terminal entries report
// ErrAlreadyResolved and progress is never double-applied.
func (s *Service) ResolveRequest(ctx context.Context, projectID, approverEmail string, sel RequestSelector, decision Decision) (*Project, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrValidation, decision)
	}

	unlock := s.lock(projectID)
	defer unlock()

	proj, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	approver := proj.FindMember(approverEmail)
	if approver == nil || !approver.Role.Oversight() {
		return nil, fmt.Errorf("%w: only the lead or admin can resolve requests", ErrForbidden)
	}

	req, err := proj.findRequest(sel)
	if err != nil {
		return nil, err
	}

	switch decision {
	case DecisionApprove:
		req.Status = RequestApproved
		if req.Kind == KindFinalReport {
			proj.Status = StatusSubmitted
			proj.ReportRef = req.ProofRef
			break
		}
		if owner := proj.FindMember(req.AuthorEmail); owner != nil {
			if task := owner.FindTask(req.TaskID); task != nil {
				task.Status = TaskApproved
			}
		}
		Recalculate(proj)
	case DecisionReject:
		req.Status = RequestRejected
		if req.Kind == KindTaskProof {
			if owner := proj.FindMember(req.AuthorEmail); owner != nil {
				if task := owner.FindTask(req.TaskID); task != nil {
					task.Status = TaskRejected
				}
			}
		}
	}

	if err := s.save(ctx, proj); err != nil {
		return nil, err
	}

	return proj, nil
}

// ApproveFinalProject is the admin's completion gate: it requires
// exactly one pending final-report entry, approves it, and completes the
// project with progress forced to 100.
func (s *Service) ApproveFinalProject(ctx context.Context, projectID, adminEmail string) (*Project, error) {
	unlock := s.lock(projectID)
	defer unlock()

	proj, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	approver := proj.FindMember(adminEmail)
	if approver == nil || approver.Role != RoleAdmin {
		return nil, fmt.Errorf("%w: only the admin can approve the final project", ErrForbidden)
	}

	req := proj.PendingFinalReport()
	if req == nil {
		return nil, fmt.Errorf("%w: expected exactly one pending final submission", ErrInvalidState)
	}

	req.Status = RequestApproved
	proj.Status = StatusCompleted
	proj.Progress = 100

	if err := s.save(ctx, proj); err != nil {
		return nil, err
	}

	return proj, nil
}

// Get fetches a project aggregate.
func (s *Service) Get(ctx context.Context, projectID string) (*Project, error) {
	return s.load(ctx, projectID)
}

// ListForMember returns every project the email participates in.
func (s *Service) ListForMember(ctx context.Context, email string) ([]*Project, error) {
	projects, err := s.repo.ListForMember(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// PendingRequests returns the project's pending ledger view in insertion
// order.
func (s *Service) PendingRequests(ctx context.Context, projectID string) ([]Request, error) {
	proj, err := s.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return proj.PendingRequests(), nil
}

// PendingFinalApprovals returns the admin queue: one summary per project
// holding a pending final-report entry.
func (s *Service) PendingFinalApprovals(ctx context.Context) ([]FinalApproval, error) {
	projects, err := s.repo.ListPendingFinal(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pending approvals: %w", err)
	}

	var out []FinalApproval
	for _, p := range projects {
		reports := p.pendingFinalReports()
		if len(reports) == 0 {
			continue
		}
		r := reports[0]
		out = append(out, FinalApproval{
			ProjectID:   p.ID,
			Title:       p.Title,
			Status:      p.Status,
			ProofRef:    r.ProofRef,
			Description: r.Description,
			LeadEmail:   r.AuthorEmail,
		})
	}
	return out, nil
}

func (s *Service) lookup(ctx context.Context, email string) (*identity.User, error) {
	user, err := s.directory.LookupByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %s is not registered", ErrUnknownMember, email)
		}
		return nil, fmt.Errorf("resolving identity: %w", err)
	}
	return user, nil
}

func (s *Service) load(ctx context.Context, projectID string) (*Project, error) {
	proj, err := s.repo.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: project %s", ErrNotFound, projectID)
		}
		return nil, fmt.Errorf("loading project: %w", err)
	}
	return proj, nil
}

func (s *Service) save(ctx context.Context, proj *Project) error {
	proj.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, proj); err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	return nil
}

// lock acquires the single-writer lock for a project id and returns the
// release func. Held across the whole read-modify-write, including
// validation failures via the caller's defer.
func (s *Service) lock(projectID string) func() {
	s.mu.Lock()
	l, ok := s.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[projectID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func taskOwner(p *Project, taskID string) *Member {
	for i := range p.Members {
		if p.Members[i].FindTask(taskID) != nil {
			return &p.Members[i]
		}
	}
	return nil
}
