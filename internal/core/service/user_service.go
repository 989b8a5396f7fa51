package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

// UserService implements admin user management.
type UserService struct {
	repo ports.UserRepository
	now  Clock
	log  zerolog.Logger
}

func NewUserService(repo ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, now: time.Now, log: log}
}

func (s *UserService) ListUsers(ctx context.Context, id domain.Identity, q ports.UserQuery) (*ports.ListUsersResult, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	q.Page, q.Limit = pageParams(q.Page, q.Limit)
	q.Search = strings.TrimSpace(q.Search)

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &ports.ListUsersResult{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages(total, q.Limit),
	}, nil
}

func (s *UserService) CreateUser(ctx context.Context, id domain.Identity, in ports.CreateUserInput) (*domain.User, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	user, err := createUser(ctx, s.repo, s.now, in.Username, in.Email, in.Password, in.Role)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("username", user.Username).Str("role", user.Role).Str("by", id.Username).Msg("user created")
	return user, nil
}

func (s *UserService) ResetPassword(ctx context.Context, id domain.Identity, userID int64, password string) error {
	if err := requireAdmin(id); err != nil {
		return err
	}
	if password == "" {
		return domain.Invalid("password is required")
	}
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash))
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, id domain.Identity, userID int64) error {
	if err := requireAdmin(id); err != nil {
		return err
	}
	if userID == id.UserID {
		return domain.ErrSelfDeletion
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", userID).Str("by", id.Username).Msg("user deleted")
	return nil
}

func requireAdmin(id domain.Identity) error {
	if !id.Authenticated() {
		return domain.ErrNotAuthenticated
	}
	if !id.IsAdmin() {
		return domain.ErrAdminOnly
	}
	return nil
}
