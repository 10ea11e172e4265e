package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
)

// UserService implements admin user management.
type UserService struct {
	users ports.UserRepository
	log   zerolog.Logger
}

func NewUserService(users ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{users: users, log: log}
}

func (s *UserService) ListUsers(ctx context.Context, role domain.Role, page ports.Page) (*ports.UserPage, error) {
	if err := validPage(page); err != nil {
		return nil, err
	}
	if role != "" && !role.Valid() {
		return nil, domain.ValidationError("unknown role %q", role)
	}

	items, total, err := s.users.List(ctx, ports.UserFilter{Role: role, Limit: page.Size, Offset: page.Offset()})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.User{}
	}
	return &ports.UserPage{Items: items, Pagination: ports.NewPagination(total, page)}, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	if firstName == "" || lastName == "" {
		return nil, domain.ValidationError("missing required fields: firstName, lastName")
	}
	if !in.Role.Valid() {
		return nil, domain.ValidationError("unknown role %q", in.Role)
	}

	current, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	current.FirstName = firstName
	current.LastName = lastName
	current.Phone = strings.TrimSpace(in.Phone)
	current.Role = in.Role
	current.IsActive = in.IsActive

	updated, err := s.users.Update(ctx, current)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", updated.ID).Str("role", string(updated.Role)).Bool("active", updated.IsActive).Msg("user updated")
	return updated, nil
}

// DeleteUser soft-deletes a user. Admins cannot delete their own account.
func (s *UserService) DeleteUser(ctx context.Context, p domain.Principal, id int64) error {
	if id == p.UserID {
		return fmt.Errorf("%w: you cannot delete your own account", domain.ErrForbidden)
	}
	if err := s.users.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", id).Int64("actor_id", p.UserID).Msg("user deleted")
	return nil
}
