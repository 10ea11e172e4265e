package ports

import (
	"context"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
)

// RegisterInput carries the fields of a self-service registration.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      string // optional, defaults to viewer
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
}

// AuthResult is returned by Register, Login and Refresh.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Me(ctx context.Context, p domain.Principal) (*domain.User, error)
}
