package sqlstore

import (
	"time"

	"github.com/leadbook/crm-api/internal/core/domain"
)

type userModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Username  string `gorm:"size:64;uniqueIndex;not null"`
	Email     string `gorm:"size:128;uniqueIndex;not null"`
	Password  string `gorm:"size:255;not null"`
	Role      string `gorm:"size:16;not null;default:staff"`
	CreatedAt time.Time
	LastLogin *time.Time
}

func (userModel) TableName() string { return "users" }

func (m *userModel) toDomain() *domain.User {
	u := &domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.Password,
		Role:         m.Role,
		CreatedAt:    m.CreatedAt.UTC(),
	}
	if m.LastLogin != nil {
		t := m.LastLogin.UTC()
		u.LastLogin = &t
	}
	return u
}

// customerModel keeps submit and update instants as epoch millis. Modified
// maps to updated_at; a field named UpdatedAt would be auto-managed by GORM.
type customerModel struct {
	ID                int64   `gorm:"primaryKey;autoIncrement"`
	CustomerName      string  `gorm:"size:128;not null"`
	PhoneNumber       string  `gorm:"size:32;uniqueIndex;not null"`
	Affiliation       *string `gorm:"size:64;index"`
	CustomerStatus    string  `gorm:"size:16;not null"`
	TransactionStatus string  `gorm:"size:16;not null"`
	Notes             string  `gorm:"type:text"`
	SubmitUser        string  `gorm:"size:64;index;not null"`
	SubmitTime        int64   `gorm:"index;not null"`
	Modified          int64   `gorm:"column:updated_at;not null"`
}

func (customerModel) TableName() string { return "customers" }

func newCustomerModel(c *domain.Customer) *customerModel {
	return &customerModel{
		ID:                c.ID,
		CustomerName:      c.CustomerName,
		PhoneNumber:       c.PhoneNumber,
		Affiliation:       c.Affiliation,
		CustomerStatus:    string(c.CustomerStatus),
		TransactionStatus: string(c.TransactionStatus),
		Notes:             c.Notes,
		SubmitUser:        c.SubmitUser,
		SubmitTime:        toMillis(c.SubmitTime),
		Modified:          toMillis(c.UpdatedAt),
	}
}

func (m *customerModel) toDomain() *domain.Customer {
	return &domain.Customer{
		ID:                m.ID,
		CustomerName:      m.CustomerName,
		PhoneNumber:       m.PhoneNumber,
		Affiliation:       m.Affiliation,
		CustomerStatus:    domain.CustomerStatus(m.CustomerStatus),
		TransactionStatus: domain.TransactionStatus(m.TransactionStatus),
		Notes:             m.Notes,
		SubmitUser:        m.SubmitUser,
		SubmitTime:        fromMillis(m.SubmitTime),
		UpdatedAt:         fromMillis(m.Modified),
	}
}

type detailModel struct {
	ID              int64   `gorm:"primaryKey;autoIncrement"`
	CustomerID      int64   `gorm:"index;not null"`
	ProductName     string  `gorm:"size:128;not null"`
	Quantity        int     `gorm:"not null"`
	UnitPrice       float64 `gorm:"not null"`
	TotalAmount     float64 `gorm:"not null"`
	TransactionTime int64   `gorm:"index;not null"`
}

func (detailModel) TableName() string { return "transaction_details" }

func (m *detailModel) toDomain() *domain.TransactionDetail {
	return &domain.TransactionDetail{
		ID:              m.ID,
		CustomerID:      m.CustomerID,
		ProductName:     m.ProductName,
		Quantity:        m.Quantity,
		UnitPrice:       m.UnitPrice,
		TotalAmount:     m.TotalAmount,
		TransactionTime: fromMillis(m.TransactionTime),
	}
}

type affiliationModel struct {
	ID         int64   `gorm:"primaryKey;autoIncrement"`
	Name       string  `gorm:"size:64;uniqueIndex;not null"`
	Avatar     *string `gorm:"size:512"`
	Link       *string `gorm:"size:512"`
	SubmitUser string  `gorm:"size:64;index;not null"`
}

func (affiliationModel) TableName() string { return "customer_affiliations" }

func (m *affiliationModel) toDomain() *domain.CustomerAffiliation {
	return &domain.CustomerAffiliation{
		ID:         m.ID,
		Name:       m.Name,
		Avatar:     m.Avatar,
		Link:       m.Link,
		SubmitUser: m.SubmitUser,
	}
}
