package ports

import (
	"context"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
)

// UpdateUserInput is an admin's full replacement of a user's profile.
type UpdateUserInput struct {
	FirstName string
	LastName  string
	Phone     string
	Role      domain.Role
	IsActive  bool
}

type UserPage struct {
	Items      []*domain.User
	Pagination Pagination
}

type UserService interface {
	ListUsers(ctx context.Context, role domain.Role, page Page) (*UserPage, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, p domain.Principal, id int64) error
}
