package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

func TestUserService_AdminOnly(t *testing.T) {
	svc := NewUserService(newStubUserRepo(), zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.ListUsers(ctx, manager, ports.UserQuery{}); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected permission denied for manager, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, alice, ports.CreateUserInput{Username: "x", Email: "x@y", Password: "p", Role: domain.RoleAdmin}); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected permission denied for staff, got %v", err)
	}
	if err := svc.DeleteUser(ctx, domain.Anonymous(), 1); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected not authenticated, got %v", err)
	}
}

func TestUserService_CreateAndList(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, zerolog.Nop())
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, admin, ports.CreateUserInput{Username: "mgr", Email: "mgr@example.com", Password: "p", Role: domain.RoleManager})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if u.Role != domain.RoleManager {
		t.Fatalf("expected manager role, got %s", u.Role)
	}
	if _, err := svc.CreateUser(ctx, admin, ports.CreateUserInput{Username: "z", Email: "z@example.com", Password: "p", Role: "owner"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown role, got %v", err)
	}
	_, _ = svc.CreateUser(ctx, admin, ports.CreateUserInput{Username: "staff1", Email: "s1@example.com", Password: "p", Role: domain.RoleStaff})

	res, err := svc.ListUsers(ctx, admin, ports.UserQuery{Search: "mgr"})
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if res.Total != 1 || res.Items[0].Username != "mgr" {
		t.Fatalf("unexpected list result: %+v", res)
	}
	if res.Page != 1 || res.Limit != defaultPageSize {
		t.Fatalf("expected default paging, got page=%d limit=%d", res.Page, res.Limit)
	}
}

func TestUserService_ResetPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, zerolog.Nop())
	ctx := context.Background()
	u, _ := svc.CreateUser(ctx, admin, ports.CreateUserInput{Username: "s", Email: "s@example.com", Password: "old", Role: domain.RoleStaff})

	if err := svc.ResetPassword(ctx, admin, u.ID, "fresh"); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}
	stored, _ := repo.FindByID(ctx, u.ID)
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("fresh")) != nil {
		t.Fatalf("password was not reset")
	}
	if err := svc.ResetPassword(ctx, admin, 999, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUserService_DeleteUser(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, zerolog.Nop())
	ctx := context.Background()
	u, _ := svc.CreateUser(ctx, admin, ports.CreateUserInput{Username: "s", Email: "s@example.com", Password: "p", Role: domain.RoleStaff})

	if err := svc.DeleteUser(ctx, admin, admin.UserID); !errors.Is(err, domain.ErrSelfDeletion) {
		t.Fatalf("expected self-deletion to be refused, got %v", err)
	}
	if err := svc.DeleteUser(ctx, admin, u.ID); err != nil {
		t.Fatalf("DeleteUser returned error: %v", err)
	}
	if _, err := repo.FindByID(ctx, u.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user to be gone, got %v", err)
	}
}
