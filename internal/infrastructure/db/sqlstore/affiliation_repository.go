package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/leadbook/crm-api/internal/core/domain"
)

type AffiliationRepository struct {
	db *gorm.DB
}

func NewAffiliationRepository(db *gorm.DB) *AffiliationRepository {
	return &AffiliationRepository{db: db}
}

func (r *AffiliationRepository) Create(ctx context.Context, a *domain.CustomerAffiliation) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	m := affiliationModel{Name: a.Name, Avatar: a.Avatar, Link: a.Link, SubmitUser: a.SubmitUser}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAffiliationExists
		}
		return fmt.Errorf("insert affiliation: %w", err)
	}
	a.ID = m.ID
	return nil
}

func (r *AffiliationRepository) FindByID(ctx context.Context, id int64) (*domain.CustomerAffiliation, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *AffiliationRepository) FindByName(ctx context.Context, name string) (*domain.CustomerAffiliation, error) {
	return r.findOne(ctx, "name = ?", name)
}

func (r *AffiliationRepository) findOne(ctx context.Context, query string, arg any) (*domain.CustomerAffiliation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var m affiliationModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAffiliationNotFound
		}
		return nil, fmt.Errorf("find affiliation: %w", err)
	}
	return m.toDomain(), nil
}

func (r *AffiliationRepository) List(ctx context.Context, submitUser string) ([]*domain.CustomerAffiliation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx := r.db.WithContext(ctx).Model(&affiliationModel{})
	if submitUser != "" {
		tx = tx.Where("submit_user = ?", submitUser)
	}

	var rows []affiliationModel
	if err := tx.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list affiliations: %w", err)
	}

	out := make([]*domain.CustomerAffiliation, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (r *AffiliationRepository) Update(ctx context.Context, a *domain.CustomerAffiliation) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&affiliationModel{}).Where("id = ?", a.ID).
		Updates(map[string]any{"avatar": a.Avatar, "link": a.Link})
	if res.Error != nil {
		return fmt.Errorf("update affiliation: %w", res.Error)
	}
	return nil
}

// Delete removes the affiliation and clears it from referencing customers in one transaction.
func (r *AffiliationRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m affiliationModel
		if err := tx.First(&m, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrAffiliationNotFound
			}
			return fmt.Errorf("find affiliation: %w", err)
		}
		if err := tx.Model(&customerModel{}).Where("affiliation = ?", m.Name).Update("affiliation", nil).Error; err != nil {
			return fmt.Errorf("detach affiliation: %w", err)
		}
		if err := tx.Delete(&affiliationModel{}, id).Error; err != nil {
			return fmt.Errorf("delete affiliation: %w", err)
		}
		return nil
	})
}
