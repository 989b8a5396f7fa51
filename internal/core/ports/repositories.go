package ports

import (
	"context"
	"time"

	"github.com/leadbook/crm-api/internal/core/domain"
)

// UserQuery carries the filter for listing users.
type UserQuery struct {
	Search string // optional: substring on username or email
	Page   int    // 1-based; 0 disables paging
	Limit  int
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// List returns a page of users ordered by created_at desc and the total count.
	List(ctx context.Context, q UserQuery) ([]*domain.User, int64, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// CustomerQuery carries all filters for reading customers.
// SubmitUser is set by the service layer from the caller's scope.
type CustomerQuery struct {
	SubmitUser    string    // empty = no owner filter
	Search        string    // optional: substring over the searchable columns
	SearchOwner   bool      // include submit_user in the search columns
	SubmittedFrom time.Time // optional: submit_time >= SubmittedFrom
	SubmittedTo   time.Time // optional: submit_time < SubmittedTo
	Page          int       // 1-based; 0 disables paging
	Limit         int
}

// CustomerPatch lists the mutable customer fields. Nil fields are left untouched.
type CustomerPatch struct {
	CustomerStatus    *domain.CustomerStatus
	TransactionStatus *domain.TransactionStatus
	Notes             *string
	// Affiliation is applied when SetAffiliation is true; nil clears it.
	Affiliation    *string
	SetAffiliation bool
	UpdatedAt      time.Time
}

// CustomerRepository defines persistence operations for customers.
type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) error
	FindByID(ctx context.Context, id int64) (*domain.Customer, error)
	// List returns customers ordered by submit_time desc and the total count.
	List(ctx context.Context, q CustomerQuery) ([]*domain.Customer, int64, error)
	Update(ctx context.Context, id int64, patch CustomerPatch) (*domain.Customer, error)
	// Delete removes the customer and all of its transaction details.
	Delete(ctx context.Context, id int64) error
}

// DetailQuery carries the filters for reading transaction details.
type DetailQuery struct {
	CustomerIDs []int64   // empty = any customer
	SubmitUser  string    // owner of the parent customer; empty = any
	From        time.Time // optional: transaction_time >= From
	To          time.Time // optional: transaction_time < To
}

// DetailRepository defines persistence operations for transaction details.
type DetailRepository interface {
	// Create persists every line for customerID and marks the customer as
	// closed in the same unit of work. IDs are written back into lines.
	Create(ctx context.Context, customerID int64, lines []*domain.TransactionDetail, closedAt time.Time) error
	FindByID(ctx context.Context, id int64) (*domain.TransactionDetail, error)
	// List returns details ordered by transaction_time desc.
	List(ctx context.Context, q DetailQuery) ([]*domain.TransactionDetail, error)
	Delete(ctx context.Context, id int64) error
}

// AffiliationRepository defines persistence operations for affiliations.
type AffiliationRepository interface {
	Create(ctx context.Context, a *domain.CustomerAffiliation) error
	FindByID(ctx context.Context, id int64) (*domain.CustomerAffiliation, error)
	FindByName(ctx context.Context, name string) (*domain.CustomerAffiliation, error)
	// List returns affiliations ordered by name. Empty submitUser lists all.
	List(ctx context.Context, submitUser string) ([]*domain.CustomerAffiliation, error)
	Update(ctx context.Context, a *domain.CustomerAffiliation) error
	// Delete removes the affiliation and clears it on every customer that references it.
	Delete(ctx context.Context, id int64) error
}

// StatsCache stores computed dashboard stats keyed by scope and period.
// Get also returns the cache generation the lookup ran in; Set stores under
// that generation so a snapshot computed across an Invalidate is never served.
type StatsCache interface {
	Get(ctx context.Context, key string) (stats *DashboardStats, gen int64, hit bool, err error)
	Set(ctx context.Context, gen int64, key string, stats *DashboardStats) error
	// Invalidate drops every cached entry.
	Invalidate(ctx context.Context) error
}
