package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

// ── users ─────────────────────────────────────────────────────────────────────

type stubUserRepo struct {
	users  map[int64]*domain.User
	nextID int64
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, u := range r.users {
		if u.Username == user.Username {
			return domain.ErrUserExists
		}
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context, q ports.UserQuery) ([]*domain.User, int64, error) {
	var out []*domain.User
	for _, u := range r.users {
		if q.Search != "" && !strings.Contains(u.Username, q.Search) && !strings.Contains(u.Email, q.Search) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *stubUserRepo) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LastLogin = &at
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// ── customers & details ───────────────────────────────────────────────────────

// stubStore backs both the customer and the detail repository so that
// cascades and owner joins behave like the relational store.
type stubStore struct {
	customers    map[int64]*domain.Customer
	details      map[int64]*domain.TransactionDetail
	nextCustomer int64
	nextDetail   int64
	// writes counts mutating calls; guard tests assert it stays at zero.
	writes int
}

func newStubStore() *stubStore {
	return &stubStore{
		customers: make(map[int64]*domain.Customer),
		details:   make(map[int64]*domain.TransactionDetail),
	}
}

func cloneCustomer(c *domain.Customer) *domain.Customer {
	clone := *c
	if c.Affiliation != nil {
		a := *c.Affiliation
		clone.Affiliation = &a
	}
	return &clone
}

// seed inserts a customer directly, bypassing the service.
func (s *stubStore) seed(c domain.Customer) *domain.Customer {
	s.nextCustomer++
	c.ID = s.nextCustomer
	if c.CustomerStatus == "" {
		c.CustomerStatus = domain.CustomerNew
	}
	if c.TransactionStatus == "" {
		c.TransactionStatus = domain.DealOpen
	}
	s.customers[c.ID] = cloneCustomer(&c)
	return cloneCustomer(&c)
}

func (s *stubStore) seedDetail(d domain.TransactionDetail) *domain.TransactionDetail {
	s.nextDetail++
	d.ID = s.nextDetail
	clone := d
	s.details[d.ID] = &clone
	return &d
}

type stubCustomerRepo struct{ *stubStore }

func (r stubCustomerRepo) Create(_ context.Context, c *domain.Customer) error {
	for _, existing := range r.customers {
		if existing.PhoneNumber == c.PhoneNumber {
			return domain.ErrDuplicatePhone
		}
	}
	r.writes++
	r.nextCustomer++
	c.ID = r.nextCustomer
	r.customers[c.ID] = cloneCustomer(c)
	return nil
}

func (r stubCustomerRepo) FindByID(_ context.Context, id int64) (*domain.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return cloneCustomer(c), nil
}

func (r stubCustomerRepo) List(_ context.Context, q ports.CustomerQuery) ([]*domain.Customer, int64, error) {
	var out []*domain.Customer
	for _, c := range r.customers {
		if q.SubmitUser != "" && c.SubmitUser != q.SubmitUser {
			continue
		}
		if !q.SubmittedFrom.IsZero() && c.SubmitTime.Before(q.SubmittedFrom) {
			continue
		}
		if !q.SubmittedTo.IsZero() && !c.SubmitTime.Before(q.SubmittedTo) {
			continue
		}
		if q.Search != "" && !matches(c, q.Search, q.SearchOwner) {
			continue
		}
		out = append(out, cloneCustomer(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmitTime.After(out[j].SubmitTime) })

	total := int64(len(out))
	if q.Page > 0 && q.Limit > 0 {
		start := (q.Page - 1) * q.Limit
		if start > len(out) {
			start = len(out)
		}
		end := start + q.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, total, nil
}

func matches(c *domain.Customer, term string, owner bool) bool {
	fields := []string{c.CustomerName, c.PhoneNumber, c.AffiliationName(), string(c.CustomerStatus), string(c.TransactionStatus), c.Notes}
	if owner {
		fields = append(fields, c.SubmitUser)
	}
	for _, f := range fields {
		if strings.Contains(f, term) {
			return true
		}
	}
	return false
}

func (r stubCustomerRepo) Update(_ context.Context, id int64, p ports.CustomerPatch) (*domain.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	r.writes++
	if p.CustomerStatus != nil {
		c.CustomerStatus = *p.CustomerStatus
	}
	if p.TransactionStatus != nil {
		c.TransactionStatus = *p.TransactionStatus
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	if p.SetAffiliation {
		c.Affiliation = p.Affiliation
	}
	c.UpdatedAt = p.UpdatedAt
	return cloneCustomer(c), nil
}

func (r stubCustomerRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.customers[id]; !ok {
		return domain.ErrCustomerNotFound
	}
	r.writes++
	delete(r.customers, id)
	for did, d := range r.details {
		if d.CustomerID == id {
			delete(r.details, did)
		}
	}
	return nil
}

type stubDetailRepo struct{ *stubStore }

func (r stubDetailRepo) Create(_ context.Context, customerID int64, lines []*domain.TransactionDetail, closedAt time.Time) error {
	c, ok := r.customers[customerID]
	if !ok {
		return domain.ErrCustomerNotFound
	}
	r.writes++
	for _, d := range lines {
		r.nextDetail++
		d.ID = r.nextDetail
		d.CustomerID = customerID
		clone := *d
		r.details[d.ID] = &clone
	}
	c.TransactionStatus = domain.DealClosed
	c.UpdatedAt = closedAt
	return nil
}

func (r stubDetailRepo) FindByID(_ context.Context, id int64) (*domain.TransactionDetail, error) {
	d, ok := r.details[id]
	if !ok {
		return nil, domain.ErrDetailNotFound
	}
	clone := *d
	return &clone, nil
}

func (r stubDetailRepo) List(_ context.Context, q ports.DetailQuery) ([]*domain.TransactionDetail, error) {
	ids := make(map[int64]struct{}, len(q.CustomerIDs))
	for _, id := range q.CustomerIDs {
		ids[id] = struct{}{}
	}
	var out []*domain.TransactionDetail
	for _, d := range r.details {
		if len(ids) > 0 {
			if _, ok := ids[d.CustomerID]; !ok {
				continue
			}
		}
		if q.SubmitUser != "" {
			c, ok := r.customers[d.CustomerID]
			if !ok || c.SubmitUser != q.SubmitUser {
				continue
			}
		}
		if !q.From.IsZero() && d.TransactionTime.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && !d.TransactionTime.Before(q.To) {
			continue
		}
		clone := *d
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TransactionTime.After(out[j].TransactionTime) })
	return out, nil
}

func (r stubDetailRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.details[id]; !ok {
		return domain.ErrDetailNotFound
	}
	r.writes++
	delete(r.details, id)
	return nil
}

// ── affiliations ──────────────────────────────────────────────────────────────

type stubAffiliationRepo struct {
	items  map[int64]*domain.CustomerAffiliation
	store  *stubStore
	nextID int64
}

func newStubAffiliationRepo(store *stubStore) *stubAffiliationRepo {
	return &stubAffiliationRepo{items: make(map[int64]*domain.CustomerAffiliation), store: store}
}

func (r *stubAffiliationRepo) seed(name, owner string) *domain.CustomerAffiliation {
	a := &domain.CustomerAffiliation{Name: name, SubmitUser: owner}
	_ = r.Create(context.Background(), a)
	return a
}

func (r *stubAffiliationRepo) Create(_ context.Context, a *domain.CustomerAffiliation) error {
	for _, existing := range r.items {
		if existing.Name == a.Name {
			return domain.ErrAffiliationExists
		}
	}
	r.nextID++
	a.ID = r.nextID
	clone := *a
	r.items[a.ID] = &clone
	return nil
}

func (r *stubAffiliationRepo) FindByID(_ context.Context, id int64) (*domain.CustomerAffiliation, error) {
	a, ok := r.items[id]
	if !ok {
		return nil, domain.ErrAffiliationNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubAffiliationRepo) FindByName(_ context.Context, name string) (*domain.CustomerAffiliation, error) {
	for _, a := range r.items {
		if a.Name == name {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrAffiliationNotFound
}

func (r *stubAffiliationRepo) List(_ context.Context, submitUser string) ([]*domain.CustomerAffiliation, error) {
	var out []*domain.CustomerAffiliation
	for _, a := range r.items {
		if submitUser != "" && a.SubmitUser != submitUser {
			continue
		}
		clone := *a
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubAffiliationRepo) Update(_ context.Context, a *domain.CustomerAffiliation) error {
	if _, ok := r.items[a.ID]; !ok {
		return domain.ErrAffiliationNotFound
	}
	clone := *a
	r.items[a.ID] = &clone
	return nil
}

func (r *stubAffiliationRepo) Delete(_ context.Context, id int64) error {
	a, ok := r.items[id]
	if !ok {
		return domain.ErrAffiliationNotFound
	}
	delete(r.items, id)
	if r.store != nil {
		for _, c := range r.store.customers {
			if c.AffiliationName() == a.Name {
				c.Affiliation = nil
			}
		}
	}
	return nil
}

// ── stats cache ───────────────────────────────────────────────────────────────

type stubStatsCache struct {
	entries       map[string]*ports.DashboardStats
	invalidations int
	// beforeSet runs between the miss and the write, simulating a concurrent mutation.
	beforeSet func()
}

func newStubStatsCache() *stubStatsCache {
	return &stubStatsCache{entries: make(map[string]*ports.DashboardStats)}
}

func (c *stubStatsCache) Get(_ context.Context, key string) (*ports.DashboardStats, int64, bool, error) {
	s, ok := c.entries[key]
	return s, int64(c.invalidations), ok, nil
}

func (c *stubStatsCache) Set(_ context.Context, gen int64, key string, stats *ports.DashboardStats) error {
	if c.beforeSet != nil {
		c.beforeSet()
	}
	if gen != int64(c.invalidations) {
		return nil
	}
	c.entries[key] = stats
	return nil
}

func (c *stubStatsCache) Invalidate(_ context.Context) error {
	c.invalidations++
	c.entries = make(map[string]*ports.DashboardStats)
	return nil
}

// ── identities ────────────────────────────────────────────────────────────────

var (
	alice   = domain.Identity{UserID: 1, Username: "alice", Role: domain.RoleStaff}
	bob     = domain.Identity{UserID: 2, Username: "bob", Role: domain.RoleStaff}
	manager = domain.Identity{UserID: 3, Username: "mia", Role: domain.RoleManager}
	admin   = domain.Identity{UserID: 4, Username: "root", Role: domain.RoleAdmin}
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
