package repository

import (
	"context"

	"stagegate/internal/domain/identity"
	"stagegate/internal/domain/project"
)

// ProjectRepository manages project aggregate persistence. Save replaces
// the whole aggregate in one transaction, guarded by the aggregate's
// revision stamp; it never applies partial-field updates.
type ProjectRepository interface {
	Create(ctx context.Context, proj *project.Project) error
	Get(ctx context.Context, id string) (*project.Project, error)
	Save(ctx context.Context, proj *project.Project) error
	ListForMember(ctx context.Context, email string) ([]*project.Project, error)
	ListPendingFinal(ctx context.Context) ([]*project.Project, error)
}

// UserRepository manages identity directory persistence
type UserRepository interface {
	Create(ctx context.Context, user *identity.User) error
	GetByEmail(ctx context.Context, email string) (*identity.User, error)
}
