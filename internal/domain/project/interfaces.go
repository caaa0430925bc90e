package project

import (
	"context"

	"stagegate/internal/domain/identity"
)

// Repository provides persistence for project aggregates. The project is
// the unit of persistence: Save replaces the whole aggregate atomically
// and never applies partial-field updates.
type Repository interface {
	Create(ctx context.Context, proj *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	Save(ctx context.Context, proj *Project) error
	ListForMember(ctx context.Context, email string) ([]*Project, error)
	ListPendingFinal(ctx context.Context) ([]*Project, error)
}

// Directory resolves emails to registered identities. Rosters are
// validated against it at project creation.
type Directory interface {
	LookupByEmail(ctx context.Context, email string) (*identity.User, error)
}
