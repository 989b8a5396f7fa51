package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

// searchColumns are matched with a substring LIKE. submit_user is appended
// for callers who see every owner.
var searchColumns = []string{
	"customer_name", "phone_number", "affiliation", "customer_status", "transaction_status", "notes",
}

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	m := newCustomerModel(c)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicatePhone
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	c.ID = m.ID
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (*domain.Customer, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return findCustomer(r.db.WithContext(ctx), id)
}

func findCustomer(tx *gorm.DB, id int64) (*domain.Customer, error) {
	var m customerModel
	if err := tx.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return m.toDomain(), nil
}

func (r *CustomerRepository) List(ctx context.Context, q ports.CustomerQuery) ([]*domain.Customer, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx := r.db.WithContext(ctx).Model(&customerModel{})
	if q.SubmitUser != "" {
		tx = tx.Where("submit_user = ?", q.SubmitUser)
	}
	if !q.SubmittedFrom.IsZero() {
		tx = tx.Where("submit_time >= ?", toMillis(q.SubmittedFrom))
	}
	if !q.SubmittedTo.IsZero() {
		tx = tx.Where("submit_time < ?", toMillis(q.SubmittedTo))
	}
	if q.Search != "" {
		tx = tx.Where(searchClause(r.db, q.Search, q.SearchOwner))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	tx = tx.Order("submit_time DESC").Order("id DESC")
	if q.Page > 0 && q.Limit > 0 {
		tx = tx.Offset((q.Page - 1) * q.Limit).Limit(q.Limit)
	}

	var rows []customerModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}

	out := make([]*domain.Customer, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, total, nil
}

// searchClause ORs the substring match across the searchable columns as one
// grouped condition, so it is ANDed with the owner filter.
func searchClause(db *gorm.DB, term string, owner bool) *gorm.DB {
	like := containsPattern(term)
	cols := searchColumns
	if owner {
		cols = append(cols[:len(cols):len(cols)], "submit_user")
	}
	clause := db.Where(likeCond(cols[0]), like)
	for _, col := range cols[1:] {
		clause = clause.Or(likeCond(col), like)
	}
	return clause
}

func (r *CustomerRepository) Update(ctx context.Context, id int64, p ports.CustomerPatch) (*domain.Customer, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	updates := map[string]any{"updated_at": toMillis(p.UpdatedAt)}
	if p.CustomerStatus != nil {
		updates["customer_status"] = string(*p.CustomerStatus)
	}
	if p.TransactionStatus != nil {
		updates["transaction_status"] = string(*p.TransactionStatus)
	}
	if p.Notes != nil {
		updates["notes"] = *p.Notes
	}
	if p.SetAffiliation {
		updates["affiliation"] = p.Affiliation
	}

	var out *domain.Customer
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findCustomer(tx, id); err != nil {
			return err
		}
		if err := tx.Model(&customerModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("update customer: %w", err)
		}
		c, err := findCustomer(tx, id)
		if err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the customer and its transaction details in one transaction.
func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("customer_id = ?", id).Delete(&detailModel{}).Error; err != nil {
			return fmt.Errorf("delete customer details: %w", err)
		}
		res := tx.Delete(&customerModel{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete customer: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrCustomerNotFound
		}
		return nil
	})
}
