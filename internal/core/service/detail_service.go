package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

// DetailService implements guarded transaction detail operations.
type DetailService struct {
	guard   customerGuard
	details ports.DetailRepository
	cache   ports.StatsCache
	now     Clock
	log     zerolog.Logger
}

func NewDetailService(
	customers ports.CustomerRepository,
	details ports.DetailRepository,
	cache ports.StatsCache,
	log zerolog.Logger,
) *DetailService {
	return &DetailService{
		guard:   customerGuard{customers: customers, log: log},
		details: details,
		cache:   cache,
		now:     time.Now,
		log:     log,
	}
}

// WithClock replaces the time source.
func (s *DetailService) WithClock(now Clock) *DetailService {
	s.now = now
	return s
}

// CreateDetails records one or more sales against a customer. Every stored
// line marks the customer as 已成交, whatever its previous state.
func (s *DetailService) CreateDetails(ctx context.Context, id domain.Identity, customerID int64, in []ports.CreateDetailInput) ([]*domain.TransactionDetail, error) {
	if _, err := s.guard.load(ctx, id, customerID); err != nil {
		return nil, err
	}
	if len(in) == 0 {
		return nil, domain.Invalid("at least one transaction detail is required")
	}

	now := s.now().UTC()
	lines := make([]*domain.TransactionDetail, 0, len(in))
	for i, item := range in {
		product := strings.TrimSpace(item.ProductName)
		if product == "" {
			return nil, domain.Invalid("item %d: product name is required", i+1)
		}
		if item.Quantity <= 0 {
			return nil, domain.Invalid("item %d: quantity must be greater than 0", i+1)
		}
		if item.UnitPrice < 0 {
			return nil, domain.Invalid("item %d: unit price must not be negative", i+1)
		}
		at := item.TransactionTime
		if at.IsZero() {
			at = now
		}
		lines = append(lines, &domain.TransactionDetail{
			CustomerID:      customerID,
			ProductName:     product,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			TotalAmount:     domain.ResolveTotal(item.Quantity, item.UnitPrice, item.TotalAmount),
			TransactionTime: at.UTC(),
		})
	}

	if err := s.details.Create(ctx, customerID, lines, now); err != nil {
		return nil, err
	}

	invalidateStats(ctx, s.cache, s.log)
	s.log.Info().Int64("customer_id", customerID).Int("lines", len(lines)).Msg("transaction details created")
	return lines, nil
}

// ListDetails returns the customer's details, newest first, with totals.
func (s *DetailService) ListDetails(ctx context.Context, id domain.Identity, customerID int64) (*ports.DetailSummary, error) {
	if _, err := s.guard.load(ctx, id, customerID); err != nil {
		return nil, err
	}

	details, err := s.details.List(ctx, ports.DetailQuery{CustomerIDs: []int64{customerID}})
	if err != nil {
		return nil, err
	}

	sum := &ports.DetailSummary{
		Details:    details,
		Products:   []string{},
		HasDetails: len(details) > 0,
	}
	seen := make(map[string]struct{}, len(details))
	for _, d := range details {
		sum.TotalQuantity += d.Quantity
		sum.TotalUnitPrice += d.UnitPrice
		sum.TotalAmount += d.TotalAmount
		if _, ok := seen[d.ProductName]; !ok {
			seen[d.ProductName] = struct{}{}
			sum.Products = append(sum.Products, d.ProductName)
		}
	}
	return sum, nil
}

// DeleteDetail removes a single transaction detail.
func (s *DetailService) DeleteDetail(ctx context.Context, id domain.Identity, detailID int64) error {
	if !id.Authenticated() {
		return domain.ErrNotAuthenticated
	}
	d, err := s.details.FindByID(ctx, detailID)
	if err != nil {
		return err
	}
	if _, err := s.guard.load(ctx, id, d.CustomerID); err != nil {
		return err
	}
	if err := s.details.Delete(ctx, detailID); err != nil {
		return err
	}
	invalidateStats(ctx, s.cache, s.log)
	return nil
}
