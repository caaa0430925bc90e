package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"stagegate/internal/domain/project"
	"stagegate/internal/repository"
)

// ProjectRepository implements repository.ProjectRepository for SQLite.
// The aggregate is saved wholesale: one transaction rewrites the project
// row plus its member, task, and request children, guarded by the
// revision stamp so a stale aggregate can never be committed.
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create persists a new project aggregate
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO projects (id, title, description, company, deadline, status, progress, report_ref, created_by, revision, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		proj.ID,
		proj.Title,
		proj.Description,
		proj.Company,
		proj.Deadline,
		string(proj.Status),
		proj.Progress,
		proj.ReportRef,
		proj.CreatedBy,
		proj.Revision,
		proj.CreatedAt,
		proj.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	if err := insertChildren(ctx, tx, proj); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Get reassembles a project aggregate by id
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	query := `
		SELECT id, title, description, company, deadline, status, progress, report_ref, created_by, revision, created_at, updated_at
		FROM projects
		WHERE id = ?
	`

	var proj project.Project
	var status string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&proj.ID,
		&proj.Title,
		&proj.Description,
		&proj.Company,
		&proj.Deadline,
		&status,
		&proj.Progress,
		&proj.ReportRef,
		&proj.CreatedBy,
		&proj.Revision,
		&proj.CreatedAt,
		&proj.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	proj.Status = project.Status(status)

	if err := r.loadMembers(ctx, &proj); err != nil {
		return nil, err
	}
	if err := r.loadRequests(ctx, &proj); err != nil {
		return nil, err
	}

	return &proj, nil
}

// Save replaces the whole aggregate. The revision check fails with
// repository.ErrConflict if the stored aggregate moved on since this one
// was loaded; on success the in-memory revision is bumped to match.
func (r *ProjectRepository) Save(ctx context.Context, proj *project.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE projects
		SET title = ?, description = ?, company = ?, deadline = ?, status = ?, progress = ?, report_ref = ?, updated_at = ?, revision = revision + 1
		WHERE id = ? AND revision = ?
	`
	result, err := tx.ExecContext(ctx, query,
		proj.Title,
		proj.Description,
		proj.Company,
		proj.Deadline,
		string(proj.Status),
		proj.Progress,
		proj.ReportRef,
		proj.UpdatedAt,
		proj.ID,
		proj.Revision,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, proj.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check project existence: %w", err)
		}
		if exists == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrConflict
	}

	// Members cascade to tasks; requests hang off the project directly.
	if _, err := tx.ExecContext(ctx, `DELETE FROM members WHERE project_id = ?`, proj.ID); err != nil {
		return fmt.Errorf("failed to clear members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM requests WHERE project_id = ?`, proj.ID); err != nil {
		return fmt.Errorf("failed to clear requests: %w", err)
	}

	if err := insertChildren(ctx, tx, proj); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	proj.Revision++
	return nil
}

// ListForMember returns every project the email is a member of, newest
// first
func (r *ProjectRepository) ListForMember(ctx context.Context, email string) ([]*project.Project, error) {
	query := `
		SELECT p.id
		FROM projects p
		JOIN members m ON m.project_id = p.id
		WHERE m.email = ?
		ORDER BY p.created_at DESC
	`
	return r.listByIDQuery(ctx, query, email)
}

// ListPendingFinal returns projects holding a pending final-report
// ledger entry
func (r *ProjectRepository) ListPendingFinal(ctx context.Context) ([]*project.Project, error) {
	query := `
		SELECT DISTINCT p.id
		FROM projects p
		JOIN requests q ON q.project_id = p.id
		WHERE q.kind = 'final-report' AND q.status = 'pending'
		ORDER BY p.created_at DESC
	`
	return r.listByIDQuery(ctx, query)
}

func (r *ProjectRepository) listByIDQuery(ctx context.Context, query string, args ...any) ([]*project.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan project id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	var projects []*project.Project
	for _, id := range ids {
		proj, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		projects = append(projects, proj)
	}
	return projects, nil
}

func (r *ProjectRepository) loadMembers(ctx context.Context, proj *project.Project) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT email, name, role, progress
		FROM members
		WHERE project_id = ?
		ORDER BY ord
	`, proj.ID)
	if err != nil {
		return fmt.Errorf("failed to load members: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var m project.Member
		var role string
		if err := rows.Scan(&m.Email, &m.Name, &role, &m.Progress); err != nil {
			return fmt.Errorf("failed to scan member: %w", err)
		}
		m.Role = project.Role(role)
		index[m.Email] = len(proj.Members)
		proj.Members = append(proj.Members, m)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating member rows: %w", err)
	}

	taskRows, err := r.db.QueryContext(ctx, `
		SELECT member_email, id, title, weight, deadline, proof_ref, status
		FROM tasks
		WHERE project_id = ?
		ORDER BY ord
	`, proj.ID)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}
	defer taskRows.Close()

	for taskRows.Next() {
		var email, status string
		var t project.Task
		if err := taskRows.Scan(&email, &t.ID, &t.Title, &t.Weight, &t.Deadline, &t.ProofRef, &status); err != nil {
			return fmt.Errorf("failed to scan task: %w", err)
		}
		t.Status = project.TaskStatus(status)
		if i, ok := index[email]; ok {
			proj.Members[i].Tasks = append(proj.Members[i].Tasks, t)
		}
	}
	if err = taskRows.Err(); err != nil {
		return fmt.Errorf("error iterating task rows: %w", err)
	}

	return nil
}

func (r *ProjectRepository) loadRequests(ctx context.Context, proj *project.Project) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT task_id, kind, author_email, task_title, proof_ref, description, status, created_at
		FROM requests
		WHERE project_id = ?
		ORDER BY ord
	`, proj.ID)
	if err != nil {
		return fmt.Errorf("failed to load requests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var req project.Request
		var kind, status string
		if err := rows.Scan(&req.TaskID, &kind, &req.AuthorEmail, &req.TaskTitle, &req.ProofRef, &req.Description, &status, &req.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan request: %w", err)
		}
		req.Kind = project.RequestKind(kind)
		req.Status = project.RequestStatus(status)
		proj.Requests = append(proj.Requests, req)
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating request rows: %w", err)
	}

	return nil
}

func insertChildren(ctx context.Context, tx *sql.Tx, proj *project.Project) error {
	memberQuery := `
		INSERT INTO members (project_id, ord, email, name, role, progress)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	taskQuery := `
		INSERT INTO tasks (project_id, member_email, ord, id, title, weight, deadline, proof_ref, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	requestQuery := `
		INSERT INTO requests (project_id, ord, task_id, kind, author_email, task_title, proof_ref, description, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	taskOrd := 0
	for ord, m := range proj.Members {
		_, err := tx.ExecContext(ctx, memberQuery, proj.ID, ord, m.Email, m.Name, string(m.Role), m.Progress)
		if err != nil {
			if isUniqueViolation(err) {
				return repository.ErrDuplicate
			}
			return fmt.Errorf("failed to insert member: %w", err)
		}
		for _, t := range m.Tasks {
			_, err := tx.ExecContext(ctx, taskQuery, proj.ID, m.Email, taskOrd, t.ID, t.Title, t.Weight, t.Deadline, t.ProofRef, string(t.Status))
			if err != nil {
				return fmt.Errorf("failed to insert task: %w", err)
			}
			taskOrd++
		}
	}

	for ord, req := range proj.Requests {
		_, err := tx.ExecContext(ctx, requestQuery, proj.ID, ord, req.TaskID, string(req.Kind), req.AuthorEmail, req.TaskTitle, req.ProofRef, req.Description, string(req.Status), req.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return repository.ErrDuplicate
			}
			return fmt.Errorf("failed to insert request: %w", err)
		}
	}

	return nil
}
