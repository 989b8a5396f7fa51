package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

// Clock returns the current instant. Tests substitute a fixed one.
type Clock func() time.Time

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ownerScope returns the submit_user filter applied to the caller's reads.
// An empty result means the caller sees every row.
func ownerScope(id domain.Identity) string {
	if id.Privileged() {
		return ""
	}
	if id.Username == "" {
		return domain.AnonymousUsername
	}
	return id.Username
}

// authorize fails with ErrPermissionDenied unless the caller may modify o.
// The owner is logged but never returned, since the error reaches the client.
func authorize(id domain.Identity, o domain.Owned, log zerolog.Logger) error {
	if id.CanModify(o) {
		return nil
	}
	log.Info().
		Str("caller", id.Username).
		Str("owner", o.Owner()).
		Msg("modification denied")
	return domain.ErrPermissionDenied
}

// customerGuard loads a customer and checks the caller's right to touch it.
// Every customer and transaction detail mutation goes through it before writing.
type customerGuard struct {
	customers ports.CustomerRepository
	log       zerolog.Logger
}

// hasPermission reports whether the caller may modify the customer.
func (g customerGuard) hasPermission(ctx context.Context, id domain.Identity, customerID int64) (bool, error) {
	if !id.Authenticated() {
		return false, domain.ErrNotAuthenticated
	}
	if id.Privileged() {
		return true, nil
	}
	c, err := g.customers.FindByID(ctx, customerID)
	if err != nil {
		return false, err
	}
	return c.Owner() == id.Username, nil
}

// load returns the customer once the caller is known to be allowed to modify it.
func (g customerGuard) load(ctx context.Context, id domain.Identity, customerID int64) (*domain.Customer, error) {
	if !id.Authenticated() {
		return nil, domain.ErrNotAuthenticated
	}
	c, err := g.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := authorize(id, c, g.log); err != nil {
		return nil, err
	}
	return c, nil
}

// invalidateStats drops cached dashboards after a write. Cache failures are
// logged and never fail the write itself.
func invalidateStats(ctx context.Context, cache ports.StatsCache, log zerolog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("stats cache invalidation failed")
	}
}

// pageParams normalises 1-based paging input.
func pageParams(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
