package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

type DetailRepository struct {
	db *gorm.DB
}

func NewDetailRepository(db *gorm.DB) *DetailRepository {
	return &DetailRepository{db: db}
}

// Create inserts every line and flips the parent customer to 已成交 in one
// transaction. Nothing is stored if any step fails.
func (r *DetailRepository) Create(ctx context.Context, customerID int64, lines []*domain.TransactionDetail, closedAt time.Time) error {
	if len(lines) == 0 {
		return nil
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findCustomer(tx, customerID); err != nil {
			return err
		}

		models := make([]detailModel, len(lines))
		for i, d := range lines {
			models[i] = detailModel{
				CustomerID:      customerID,
				ProductName:     d.ProductName,
				Quantity:        d.Quantity,
				UnitPrice:       d.UnitPrice,
				TotalAmount:     d.TotalAmount,
				TransactionTime: toMillis(d.TransactionTime),
			}
		}
		if err := tx.Create(&models).Error; err != nil {
			return fmt.Errorf("insert transaction details: %w", err)
		}

		err := tx.Model(&customerModel{}).Where("id = ?", customerID).Updates(map[string]any{
			"transaction_status": string(domain.DealClosed),
			"updated_at":         toMillis(closedAt),
		}).Error
		if err != nil {
			return fmt.Errorf("close customer deal: %w", err)
		}

		for i, d := range lines {
			d.ID = models[i].ID
			d.CustomerID = customerID
		}
		return nil
	})
}

func (r *DetailRepository) FindByID(ctx context.Context, id int64) (*domain.TransactionDetail, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var m detailModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDetailNotFound
		}
		return nil, fmt.Errorf("find transaction detail: %w", err)
	}
	return m.toDomain(), nil
}

func (r *DetailRepository) List(ctx context.Context, q ports.DetailQuery) ([]*domain.TransactionDetail, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx := r.db.WithContext(ctx).Model(&detailModel{})
	if len(q.CustomerIDs) > 0 {
		tx = tx.Where("transaction_details.customer_id IN ?", q.CustomerIDs)
	}
	if q.SubmitUser != "" {
		tx = tx.Joins("JOIN customers ON customers.id = transaction_details.customer_id").
			Where("customers.submit_user = ?", q.SubmitUser)
	}
	if !q.From.IsZero() {
		tx = tx.Where("transaction_details.transaction_time >= ?", toMillis(q.From))
	}
	if !q.To.IsZero() {
		tx = tx.Where("transaction_details.transaction_time < ?", toMillis(q.To))
	}

	var rows []detailModel
	err := tx.Select("transaction_details.*").
		Order("transaction_details.transaction_time DESC").
		Order("transaction_details.id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list transaction details: %w", err)
	}

	out := make([]*domain.TransactionDetail, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (r *DetailRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Delete(&detailModel{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete transaction detail: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrDetailNotFound
	}
	return nil
}
