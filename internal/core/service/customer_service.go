package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

// CustomerService implements scoped customer reads and guarded customer writes.
type CustomerService struct {
	guard        customerGuard
	customers    ports.CustomerRepository
	affiliations ports.AffiliationRepository
	cache        ports.StatsCache
	now          Clock
	log          zerolog.Logger
}

func NewCustomerService(
	customers ports.CustomerRepository,
	affiliations ports.AffiliationRepository,
	cache ports.StatsCache,
	log zerolog.Logger,
) *CustomerService {
	return &CustomerService{
		guard:        customerGuard{customers: customers, log: log},
		customers:    customers,
		affiliations: affiliations,
		cache:        cache,
		now:          time.Now,
		log:          log,
	}
}

// WithClock replaces the time source.
func (s *CustomerService) WithClock(now Clock) *CustomerService {
	s.now = now
	return s
}

// CreateCustomer stores a new customer owned by the caller.
func (s *CustomerService) CreateCustomer(ctx context.Context, id domain.Identity, in ports.CreateCustomerInput) (*domain.Customer, error) {
	if !id.Authenticated() {
		return nil, domain.ErrNotAuthenticated
	}

	name := strings.TrimSpace(in.CustomerName)
	phone := strings.TrimSpace(in.PhoneNumber)
	if name == "" {
		return nil, domain.Invalid("customer name is required")
	}
	if phone == "" {
		return nil, domain.Invalid("phone number is required")
	}

	status := domain.CustomerNew
	if in.CustomerStatus != "" {
		status = domain.CustomerStatus(in.CustomerStatus)
		if !status.Valid() {
			return nil, domain.ErrInvalidCustomerState
		}
	}
	deal := domain.DealOpen
	if in.TransactionStatus != "" {
		deal = domain.TransactionStatus(in.TransactionStatus)
		if !deal.Valid() {
			return nil, domain.ErrInvalidDealState
		}
	}

	affiliation, err := s.resolveAffiliation(ctx, id, in.Affiliation)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &domain.Customer{
		CustomerName:      name,
		PhoneNumber:       phone,
		Affiliation:       affiliation,
		CustomerStatus:    status,
		TransactionStatus: deal,
		Notes:             in.Notes,
		SubmitUser:        id.Username,
		SubmitTime:        now,
		UpdatedAt:         now,
	}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, err
	}

	invalidateStats(ctx, s.cache, s.log)
	s.log.Info().Int64("customer_id", c.ID).Str("submit_user", c.SubmitUser).Msg("customer created")
	return c, nil
}

// ListCustomers returns the caller's visible customers, newest first.
func (s *CustomerService) ListCustomers(ctx context.Context, id domain.Identity, in ports.ListCustomersInput) (*ports.ListCustomersResult, error) {
	page, limit := pageParams(in.Page, in.Limit)

	items, total, err := s.customers.List(ctx, ports.CustomerQuery{
		SubmitUser:  ownerScope(id),
		Search:      strings.TrimSpace(in.Search),
		SearchOwner: id.Privileged(),
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}

	return &ports.ListCustomersResult{
		Items:       items,
		TotalCount:  total,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	}, nil
}

// GetCustomer returns a single customer the caller is allowed to see.
func (s *CustomerService) GetCustomer(ctx context.Context, id domain.Identity, customerID int64) (*domain.Customer, error) {
	return s.guard.load(ctx, id, customerID)
}

// HasPermission reports whether the caller may modify the customer.
func (s *CustomerService) HasPermission(ctx context.Context, id domain.Identity, customerID int64) (bool, error) {
	return s.guard.hasPermission(ctx, id, customerID)
}

func (s *CustomerService) UpdateCustomerStatus(ctx context.Context, id domain.Identity, customerID int64, status string) (*domain.Customer, error) {
	if _, err := s.guard.load(ctx, id, customerID); err != nil {
		return nil, err
	}
	st := domain.CustomerStatus(status)
	if !st.Valid() {
		return nil, domain.ErrInvalidCustomerState
	}
	return s.apply(ctx, customerID, ports.CustomerPatch{CustomerStatus: &st})
}

func (s *CustomerService) UpdateTransactionStatus(ctx context.Context, id domain.Identity, customerID int64, status string) (*domain.Customer, error) {
	if _, err := s.guard.load(ctx, id, customerID); err != nil {
		return nil, err
	}
	st := domain.TransactionStatus(status)
	if !st.Valid() {
		return nil, domain.ErrInvalidDealState
	}
	return s.apply(ctx, customerID, ports.CustomerPatch{TransactionStatus: &st})
}

func (s *CustomerService) UpdateCustomerNotes(ctx context.Context, id domain.Identity, customerID int64, notes string) (*domain.Customer, error) {
	if _, err := s.guard.load(ctx, id, customerID); err != nil {
		return nil, err
	}
	return s.apply(ctx, customerID, ports.CustomerPatch{Notes: &notes})
}

// UpdateCustomerAffiliation assigns or clears the customer's affiliation.
// An empty name clears it.
func (s *CustomerService) UpdateCustomerAffiliation(ctx context.Context, id domain.Identity, customerID int64, affiliation string) (*domain.Customer, error) {
	if _, err := s.guard.load(ctx, id, customerID); err != nil {
		return nil, err
	}
	name, err := s.resolveAffiliation(ctx, id, affiliation)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, customerID, ports.CustomerPatch{Affiliation: name, SetAffiliation: true})
}

// DeleteCustomer removes the customer together with its transaction details.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id domain.Identity, customerID int64) error {
	if _, err := s.guard.load(ctx, id, customerID); err != nil {
		return err
	}
	if err := s.customers.Delete(ctx, customerID); err != nil {
		return err
	}
	invalidateStats(ctx, s.cache, s.log)
	s.log.Info().Int64("customer_id", customerID).Str("by", id.Username).Msg("customer deleted")
	return nil
}

func (s *CustomerService) apply(ctx context.Context, customerID int64, patch ports.CustomerPatch) (*domain.Customer, error) {
	patch.UpdatedAt = s.now().UTC()
	c, err := s.customers.Update(ctx, customerID, patch)
	if err != nil {
		return nil, err
	}
	invalidateStats(ctx, s.cache, s.log)
	return c, nil
}

// resolveAffiliation validates an affiliation name for assignment by the caller.
// Non-admins may only assign affiliations they created themselves.
func (s *CustomerService) resolveAffiliation(ctx context.Context, id domain.Identity, name string) (*string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	a, err := s.affiliations.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !id.IsAdmin() && a.SubmitUser != id.Username {
		return nil, domain.ErrForeignAffiliation
	}
	return &a.Name, nil
}
