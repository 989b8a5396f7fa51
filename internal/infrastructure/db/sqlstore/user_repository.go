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

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	m := userModel{
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.PasswordHash,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			if uniqueColumn(err, "email") {
				return domain.ErrEmailTaken
			}
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.ID = m.ID
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var m userModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return m.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context, q ports.UserQuery) ([]*domain.User, int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx := r.db.WithContext(ctx).Model(&userModel{})
	if q.Search != "" {
		like := containsPattern(q.Search)
		tx = tx.Where(likeCond("username")+" OR "+likeCond("email"), like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	tx = tx.Order("created_at DESC").Order("id DESC")
	if q.Page > 0 && q.Limit > 0 {
		tx = tx.Offset((q.Page - 1) * q.Limit).Limit(q.Limit)
	}

	var rows []userModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	out := make([]*domain.User, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, total, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.update(ctx, id, "password", hash)
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, id, "last_login", at)
}

func (r *UserRepository) update(ctx context.Context, id int64, column string, value any) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("update user %s: %w", column, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := r.db.WithContext(ctx).Delete(&userModel{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
