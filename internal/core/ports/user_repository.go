package ports

import (
	"context"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
)

// UserFilter narrows a user listing. Zero values mean "no filter".
type UserFilter struct {
	Role   domain.Role
	Limit  int
	Offset int
}

// UserRepository defines persistence operations for user accounts.
// Soft-deleted users are invisible to every lookup.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByEmail matches case-insensitively and returns the password hash.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]*domain.User, int64, error)
	// Update replaces the profile, role and active flag of an existing user.
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	SoftDelete(ctx context.Context, id int64) error
}
