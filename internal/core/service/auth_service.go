package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
	"github.com/hamudihigo-collab/aidcore/internal/pkg/password"
	"github.com/hamudihigo-collab/aidcore/internal/pkg/token"
)

// AuthService implements registration, login and token refresh.
type AuthService struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenService
	log    zerolog.Logger
}

func NewAuthService(users ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenService, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, log: log}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	if email == "" || in.Password == "" || firstName == "" || lastName == "" {
		return nil, domain.ValidationError("missing required fields: email, password, firstName, lastName")
	}
	if !password.MeetsPolicy(in.Password) {
		return nil, domain.ValidationError("password must be at least %d characters with uppercase, lowercase, number, and special character (%s)",
			password.MinLength, password.Symbols)
	}

	role := domain.RoleViewer
	if in.Role != "" {
		r, ok := domain.ParseRole(in.Role)
		if !ok {
			return nil, domain.ValidationError("unknown role %q", in.Role)
		}
		role = r
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	user, err := s.users.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
		IsActive:     true,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return s.issue(user, false)
}

func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ValidationError("email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}

	return s.issue(user, in.RememberMe)
}

// Refresh exchanges a valid refresh token for a new token pair. The user is
// reloaded so role changes and deactivation take effect immediately.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, domain.ValidationError("refreshToken is required")
	}

	claims, err := s.tokens.Verify(refreshToken, token.Refresh)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: refresh token subject no longer exists", domain.ErrUnauthenticated)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}

	return s.issue(user, false)
}

func (s *AuthService) Me(ctx context.Context, p domain.Principal) (*domain.User, error) {
	return s.users.FindByID(ctx, p.UserID)
}

func (s *AuthService) issue(user *domain.User, extended bool) (*ports.AuthResult, error) {
	access, err := s.tokens.IssueAccessToken(user.ID, user.Role, extended)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &ports.AuthResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}
