package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: NewLogger(zerolog.Nop(), "silent"),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func at(day, hour int) time.Time {
	return time.Date(2024, 5, day, hour, 0, 0, 0, time.UTC)
}

func seedCustomer(t *testing.T, repo *CustomerRepository, phone, owner string, submitted time.Time) *domain.Customer {
	t.Helper()
	c := &domain.Customer{
		CustomerName:      "客户" + phone,
		PhoneNumber:       phone,
		CustomerStatus:    domain.CustomerNew,
		TransactionStatus: domain.DealOpen,
		SubmitUser:        owner,
		SubmitTime:        submitted,
		UpdatedAt:         submitted,
	}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &domain.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h", Role: domain.RoleStaff, CreatedAt: at(1, 0)}
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)

	err := repo.Create(ctx, &domain.User{Username: "alice", Email: "other@example.com", PasswordHash: "h", Role: domain.RoleStaff})
	require.ErrorIs(t, err, domain.ErrUserExists)
	err = repo.Create(ctx, &domain.User{Username: "alice2", Email: "alice@example.com", PasswordHash: "h", Role: domain.RoleStaff})
	require.ErrorIs(t, err, domain.ErrEmailTaken)
	require.ErrorIs(t, err, domain.ErrConflict)

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
	require.Nil(t, byEmail.LastLogin)

	require.NoError(t, repo.TouchLastLogin(ctx, u.ID, at(2, 9)))
	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "h2"))
	got, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "h2", got.PasswordHash)
	require.NotNil(t, got.LastLogin)
	require.True(t, got.LastLogin.Equal(at(2, 9)))

	require.NoError(t, repo.Create(ctx, &domain.User{Username: "bob", Email: "bob@example.com", PasswordHash: "h", Role: domain.RoleManager, CreatedAt: at(3, 0)}))
	users, total, err := repo.List(ctx, ports.UserQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Equal(t, "bob", users[0].Username)

	users, total, err = repo.List(ctx, ports.UserQuery{Search: "ali"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "alice", users[0].Username)

	require.NoError(t, repo.Delete(ctx, u.ID))
	_, err = repo.FindByID(ctx, u.ID)
	require.ErrorIs(t, err, domain.ErrUserNotFound)
	require.ErrorIs(t, repo.Delete(ctx, u.ID), domain.ErrNotFound)
}

func TestCustomerRepository_CreateAndConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCustomerRepository(db)

	c := seedCustomer(t, repo, "13800000000", "alice", at(1, 8))
	got, err := repo.FindByID(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.SubmitUser)
	require.True(t, got.SubmitTime.Equal(at(1, 8)))
	require.Nil(t, got.Affiliation)

	err = repo.Create(context.Background(), &domain.Customer{CustomerName: "dup", PhoneNumber: "13800000000", SubmitUser: "bob"})
	require.ErrorIs(t, err, domain.ErrDuplicatePhone)

	_, err = repo.FindByID(context.Background(), 999)
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestCustomerRepository_ListScopeSearchAndPaging(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	seedCustomer(t, repo, "100", "alice", at(1, 0))
	seedCustomer(t, repo, "200", "bob", at(2, 0))
	seedCustomer(t, repo, "300", "alice", at(3, 0))
	seedCustomer(t, repo, "400", "alice", at(4, 0))

	rows, total, err := repo.List(ctx, ports.CustomerQuery{SubmitUser: "alice", Page: 1, Limit: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, rows, 2)
	require.Equal(t, "400", rows[0].PhoneNumber)
	require.Equal(t, "300", rows[1].PhoneNumber)

	// search is ANDed with the owner filter
	rows, total, err = repo.List(ctx, ports.CustomerQuery{SubmitUser: "alice", Search: "200"})
	require.NoError(t, err)
	require.EqualValues(t, 0, total)
	require.Empty(t, rows)

	rows, total, err = repo.List(ctx, ports.CustomerQuery{Search: "bob", SearchOwner: true})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "200", rows[0].PhoneNumber)

	_, total, err = repo.List(ctx, ports.CustomerQuery{SubmittedFrom: at(2, 0), SubmittedTo: at(4, 0)})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
}

func TestCustomerRepository_SearchTreatsWildcardsLiterally(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()

	seedCustomer(t, repo, "100", "alice", at(1, 0))
	seedCustomer(t, repo, "200", "alice", at(2, 0))

	for _, term := range []string{"%", "_", "!"} {
		_, total, err := repo.List(ctx, ports.CustomerQuery{Search: term})
		require.NoError(t, err)
		require.EqualValues(t, 0, total, "search %q", term)
	}

	c := seedCustomer(t, repo, "300", "alice", at(3, 0))
	notes := "discount 50%_off!"
	_, err := repo.Update(ctx, c.ID, ports.CustomerPatch{Notes: &notes})
	require.NoError(t, err)

	rows, total, err := repo.List(ctx, ports.CustomerQuery{Search: "50%_off!"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "300", rows[0].PhoneNumber)
}

func TestCustomerRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCustomerRepository(db)
	ctx := context.Background()
	c := seedCustomer(t, repo, "100", "alice", at(1, 0))

	status := domain.CustomerCircled
	notes := "called twice"
	aff := "渠道A"
	got, err := repo.Update(ctx, c.ID, ports.CustomerPatch{
		CustomerStatus: &status,
		Notes:          &notes,
		Affiliation:    &aff,
		SetAffiliation: true,
		UpdatedAt:      at(5, 0),
	})
	require.NoError(t, err)
	require.Equal(t, domain.CustomerCircled, got.CustomerStatus)
	require.Equal(t, domain.DealOpen, got.TransactionStatus)
	require.Equal(t, "called twice", got.Notes)
	require.Equal(t, "渠道A", got.AffiliationName())
	require.True(t, got.UpdatedAt.Equal(at(5, 0)))
	require.True(t, got.SubmitTime.Equal(at(1, 0)), "submit time must not move")

	got, err = repo.Update(ctx, c.ID, ports.CustomerPatch{SetAffiliation: true, UpdatedAt: at(6, 0)})
	require.NoError(t, err)
	require.Nil(t, got.Affiliation)
	require.Equal(t, "called twice", got.Notes)

	_, err = repo.Update(ctx, 999, ports.CustomerPatch{Notes: &notes, UpdatedAt: at(6, 0)})
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestDetailRepository_CreateRollsBackAllLines(t *testing.T) {
	db := setupTestDB(t)
	customers := NewCustomerRepository(db)
	details := NewDetailRepository(db)
	ctx := context.Background()

	c := seedCustomer(t, customers, "100", "alice", at(1, 0))

	err := db.Callback().Update().Before("gorm:update").Register("test:fail_close", func(tx *gorm.DB) {
		if tx.Statement.Table == "customers" {
			_ = tx.AddError(errors.New("close failed"))
		}
	})
	require.NoError(t, err)

	lines := []*domain.TransactionDetail{
		{ProductName: "A", Quantity: 1, UnitPrice: 10, TotalAmount: 10, TransactionTime: at(2, 0)},
		{ProductName: "B", Quantity: 2, UnitPrice: 5, TotalAmount: 10, TransactionTime: at(2, 0)},
	}
	require.Error(t, details.Create(ctx, c.ID, lines, at(4, 0)))

	rows, err := details.List(ctx, ports.DetailQuery{CustomerIDs: []int64{c.ID}})
	require.NoError(t, err)
	require.Empty(t, rows)

	got, err := customers.FindByID(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DealOpen, got.TransactionStatus)
}

func TestDetailRepository_CreateClosesDealAndDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	customers := NewCustomerRepository(db)
	details := NewDetailRepository(db)
	ctx := context.Background()

	c := seedCustomer(t, customers, "100", "alice", at(1, 0))
	other := seedCustomer(t, customers, "200", "bob", at(1, 0))

	d1 := &domain.TransactionDetail{CustomerID: c.ID, ProductName: "A", Quantity: 2, UnitPrice: 10, TotalAmount: 20, TransactionTime: at(2, 0)}
	d2 := &domain.TransactionDetail{CustomerID: c.ID, ProductName: "B", Quantity: 1, UnitPrice: 5, TotalAmount: 5, TransactionTime: at(3, 0)}
	d3 := &domain.TransactionDetail{CustomerID: other.ID, ProductName: "C", Quantity: 1, UnitPrice: 7, TotalAmount: 7, TransactionTime: at(3, 0)}
	require.NoError(t, details.Create(ctx, c.ID, []*domain.TransactionDetail{d1, d2}, at(4, 0)))
	require.NoError(t, details.Create(ctx, other.ID, []*domain.TransactionDetail{d3}, at(4, 0)))
	for _, d := range []*domain.TransactionDetail{d1, d2, d3} {
		require.NotZero(t, d.ID)
	}
	require.NotEqual(t, d1.ID, d2.ID)

	got, err := customers.FindByID(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DealClosed, got.TransactionStatus)
	require.True(t, got.UpdatedAt.Equal(at(4, 0)))

	err = details.Create(ctx, 999, []*domain.TransactionDetail{{ProductName: "X", Quantity: 1}}, at(4, 0))
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)

	rows, err := details.List(ctx, ports.DetailQuery{CustomerIDs: []int64{c.ID}})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "B", rows[0].ProductName)

	rows, err = details.List(ctx, ports.DetailQuery{SubmitUser: "bob"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "C", rows[0].ProductName)

	rows, err = details.List(ctx, ports.DetailQuery{From: at(3, 0), To: at(4, 0)})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, customers.Delete(ctx, c.ID))
	_, err = details.FindByID(ctx, d1.ID)
	require.ErrorIs(t, err, domain.ErrDetailNotFound)
	_, err = details.FindByID(ctx, d2.ID)
	require.ErrorIs(t, err, domain.ErrDetailNotFound)
	_, err = details.FindByID(ctx, d3.ID)
	require.NoError(t, err)

	require.ErrorIs(t, customers.Delete(ctx, c.ID), domain.ErrCustomerNotFound)
	require.NoError(t, details.Delete(ctx, d3.ID))
	require.ErrorIs(t, details.Delete(ctx, d3.ID), domain.ErrNotFound)
}

func TestAffiliationRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAffiliationRepository(db)
	customers := NewCustomerRepository(db)
	ctx := context.Background()

	avatar := "https://img/a.png"
	a := &domain.CustomerAffiliation{Name: "渠道A", Avatar: &avatar, SubmitUser: "alice"}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, &domain.CustomerAffiliation{Name: "渠道B", SubmitUser: "bob"}))
	require.ErrorIs(t, repo.Create(ctx, &domain.CustomerAffiliation{Name: "渠道A", SubmitUser: "bob"}), domain.ErrAffiliationExists)

	mine, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	byName, err := repo.FindByName(ctx, "渠道A")
	require.NoError(t, err)
	require.Equal(t, avatar, *byName.Avatar)

	link := "https://example.com"
	byName.Link = &link
	byName.Avatar = nil
	require.NoError(t, repo.Update(ctx, byName))
	got, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.Nil(t, got.Avatar)
	require.Equal(t, link, *got.Link)

	c := seedCustomer(t, customers, "100", "alice", at(1, 0))
	name := "渠道A"
	_, err = customers.Update(ctx, c.ID, ports.CustomerPatch{Affiliation: &name, SetAffiliation: true, UpdatedAt: at(2, 0)})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, a.ID))
	_, err = repo.FindByID(ctx, a.ID)
	require.ErrorIs(t, err, domain.ErrAffiliationNotFound)
	detached, err := customers.FindByID(ctx, c.ID)
	require.NoError(t, err)
	require.Nil(t, detached.Affiliation)

	require.ErrorIs(t, repo.Delete(ctx, a.ID), domain.ErrNotFound)
}
