package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

// AuthService implements registration, login and password changes.
type AuthService struct {
	repo      ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	now       Clock
	log       zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL, now: time.Now, log: log}
}

// Register creates a staff account. Elevated roles are only granted by admins.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	return createUser(ctx, s.repo, s.now, username, email, password, domain.RoleStaff)
}

// Login authenticates by email or username and returns a signed token.
func (s *AuthService) Login(ctx context.Context, login, password string) (string, *domain.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.findByLogin(ctx, login)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to record last login")
	} else {
		user.LastLogin = &now
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	s.log.Info().Str("username", user.Username).Msg("user logged in")
	return token, user, nil
}

// ChangePassword replaces the caller's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, id domain.Identity, current, next string) error {
	if !id.Authenticated() {
		return domain.ErrNotAuthenticated
	}
	if next == "" {
		return domain.Invalid("new password is required")
	}

	user, err := s.repo.FindByID(ctx, id.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.ID, string(hash))
}

func (s *AuthService) findByLogin(ctx context.Context, login string) (*domain.User, error) {
	if strings.Contains(login, "@") {
		user, err := s.repo.FindByEmail(ctx, login)
		if !errors.Is(err, domain.ErrUserNotFound) {
			return user, err
		}
	}
	return s.repo.FindByUsername(ctx, login)
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"exp":      s.now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

// createUser validates and stores a new account with a bcrypt-hashed password.
func createUser(ctx context.Context, repo ports.UserRepository, now Clock, username, email, password, role string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, domain.Invalid("username, email and password are required")
	}
	if username == domain.AnonymousUsername {
		return nil, domain.Invalid("username %q is reserved", username)
	}
	if !domain.ValidRole(role) {
		return nil, domain.Invalid("unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now().UTC(),
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
