package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/leadbook/crm-api/internal/core/domain"
)

func strPtr(s string) *string { return &s }

func TestAffiliationService_CreateAndList(t *testing.T) {
	repo := newStubAffiliationRepo(nil)
	svc := NewAffiliationService(repo, newStubStatsCache(), zerolog.Nop())
	ctx := context.Background()

	a, err := svc.CreateAffiliation(ctx, alice, " 渠道A ", strPtr("https://img/a.png"), strPtr(""))
	if err != nil {
		t.Fatalf("CreateAffiliation returned error: %v", err)
	}
	if a.Name != "渠道A" || a.SubmitUser != "alice" || a.Link != nil {
		t.Fatalf("unexpected affiliation: %+v", a)
	}
	if _, err := svc.CreateAffiliation(ctx, bob, "渠道A", nil, nil); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := svc.CreateAffiliation(ctx, bob, domain.NoAffiliation, nil, nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected reserved name to be rejected, got %v", err)
	}
	_, _ = svc.CreateAffiliation(ctx, bob, "渠道B", nil, nil)

	mine, err := svc.ListAffiliations(ctx, alice)
	if err != nil {
		t.Fatalf("ListAffiliations returned error: %v", err)
	}
	if len(mine) != 1 || mine[0].Name != "渠道A" {
		t.Fatalf("unexpected staff view: %+v", mine)
	}

	mgr, _ := svc.ListAffiliations(ctx, manager)
	if len(mgr) != 0 {
		t.Fatalf("expected manager to see only own affiliations, got %d", len(mgr))
	}

	all, _ := svc.ListAffiliations(ctx, admin)
	if len(all) != 2 {
		t.Fatalf("expected admin to see all affiliations, got %d", len(all))
	}
}

func TestAffiliationService_UpdateGuard(t *testing.T) {
	repo := newStubAffiliationRepo(nil)
	svc := NewAffiliationService(repo, nil, zerolog.Nop())
	ctx := context.Background()
	a := repo.seed("渠道B", "bob")

	if _, err := svc.UpdateAffiliation(ctx, alice, a.ID, strPtr("x"), nil); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	updated, err := svc.UpdateAffiliation(ctx, manager, a.ID, strPtr("https://img/b.png"), nil)
	if err != nil {
		t.Fatalf("UpdateAffiliation returned error: %v", err)
	}
	if updated.Avatar == nil || *updated.Avatar != "https://img/b.png" {
		t.Fatalf("avatar not updated: %+v", updated)
	}
}

func TestAffiliationService_DeleteDetachesCustomers(t *testing.T) {
	store := newStubStore()
	repo := newStubAffiliationRepo(store)
	cache := newStubStatsCache()
	svc := NewAffiliationService(repo, cache, zerolog.Nop())
	ctx := context.Background()
	a := repo.seed("渠道A", "alice")
	name := "渠道A"
	c := store.seed(domain.Customer{PhoneNumber: "1", SubmitUser: "alice", Affiliation: &name})

	if err := svc.DeleteAffiliation(ctx, bob, a.ID); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if err := svc.DeleteAffiliation(ctx, alice, a.ID); err != nil {
		t.Fatalf("DeleteAffiliation returned error: %v", err)
	}
	if store.customers[c.ID].Affiliation != nil {
		t.Fatalf("expected customer affiliation to be cleared")
	}
	if cache.invalidations != 1 {
		t.Fatalf("expected cache invalidation")
	}
	if err := svc.DeleteAffiliation(ctx, alice, a.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
