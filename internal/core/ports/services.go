package ports

import (
	"context"
	"time"

	"github.com/leadbook/crm-api/internal/core/domain"
)

// AuthService handles public registration, login and password changes.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, login, password string) (string, *domain.User, error)
	ChangePassword(ctx context.Context, id domain.Identity, current, next string) error
}

// CreateUserInput is used by admins to provision an account with any role.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// ListUsersResult is returned by UserService.ListUsers.
type ListUsersResult struct {
	Items      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// UserService covers the admin user-management operations.
type UserService interface {
	ListUsers(ctx context.Context, id domain.Identity, q UserQuery) (*ListUsersResult, error)
	CreateUser(ctx context.Context, id domain.Identity, in CreateUserInput) (*domain.User, error)
	ResetPassword(ctx context.Context, id domain.Identity, userID int64, password string) error
	DeleteUser(ctx context.Context, id domain.Identity, userID int64) error
}

// CreateCustomerInput carries the fields accepted when creating a customer.
type CreateCustomerInput struct {
	CustomerName      string
	PhoneNumber       string
	Affiliation       string
	CustomerStatus    string // optional, defaults to 新客户
	TransactionStatus string // optional, defaults to 未成交
	Notes             string
}

// ListCustomersInput carries the paging and search parameters.
type ListCustomersInput struct {
	Search string
	Page   int
	Limit  int
}

// ListCustomersResult is returned by ListCustomers.
type ListCustomersResult struct {
	Items       []*domain.Customer
	TotalCount  int64
	TotalPages  int
	CurrentPage int
}

// CustomerService covers scoped reads and guarded writes of customers.
type CustomerService interface {
	CreateCustomer(ctx context.Context, id domain.Identity, in CreateCustomerInput) (*domain.Customer, error)
	ListCustomers(ctx context.Context, id domain.Identity, in ListCustomersInput) (*ListCustomersResult, error)
	GetCustomer(ctx context.Context, id domain.Identity, customerID int64) (*domain.Customer, error)
	HasPermission(ctx context.Context, id domain.Identity, customerID int64) (bool, error)
	UpdateCustomerStatus(ctx context.Context, id domain.Identity, customerID int64, status string) (*domain.Customer, error)
	UpdateTransactionStatus(ctx context.Context, id domain.Identity, customerID int64, status string) (*domain.Customer, error)
	UpdateCustomerNotes(ctx context.Context, id domain.Identity, customerID int64, notes string) (*domain.Customer, error)
	UpdateCustomerAffiliation(ctx context.Context, id domain.Identity, customerID int64, affiliation string) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id domain.Identity, customerID int64) error
}

// CreateDetailInput carries one transaction detail line.
type CreateDetailInput struct {
	ProductName     string
	Quantity        int
	UnitPrice       float64
	TotalAmount     *float64  // nil = quantity × unit price
	TransactionTime time.Time // zero = now
}

// DetailSummary is the per-customer transaction view.
type DetailSummary struct {
	Details        []*domain.TransactionDetail
	TotalQuantity  int
	TotalUnitPrice float64
	TotalAmount    float64
	Products       []string
	HasDetails     bool
}

// DetailService covers guarded transaction detail operations.
type DetailService interface {
	CreateDetails(ctx context.Context, id domain.Identity, customerID int64, in []CreateDetailInput) ([]*domain.TransactionDetail, error)
	ListDetails(ctx context.Context, id domain.Identity, customerID int64) (*DetailSummary, error)
	DeleteDetail(ctx context.Context, id domain.Identity, detailID int64) error
}

// AffiliationService covers affiliation management.
type AffiliationService interface {
	CreateAffiliation(ctx context.Context, id domain.Identity, name string, avatar, link *string) (*domain.CustomerAffiliation, error)
	ListAffiliations(ctx context.Context, id domain.Identity) ([]*domain.CustomerAffiliation, error)
	UpdateAffiliation(ctx context.Context, id domain.Identity, affiliationID int64, avatar, link *string) (*domain.CustomerAffiliation, error)
	DeleteAffiliation(ctx context.Context, id domain.Identity, affiliationID int64) error
}

// StatsService covers the dashboard and rollup aggregations.
type StatsService interface {
	GetDashboardStats(ctx context.Context, id domain.Identity, period string) (*DashboardStats, error)
	GetCustomerStatsByAffiliation(ctx context.Context, id domain.Identity) ([]AffiliationStats, error)
	GetUsersAnalysisData(ctx context.Context, id domain.Identity) ([]UserStats, error)
}
