package handler

import (
	"time"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type registerRequest struct {
	Username string `json:"username" validate:"required,min=2,max=32"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	// Login accepts either the username or the email address.
	Login    string `json:"login"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=6"`
}

// --- Users ---

type createUserRequest struct {
	Username string `json:"username" validate:"required,min=2,max=32"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"     validate:"required,oneof=admin manager staff guest"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

type userListResponse struct {
	Users      []*domain.User `json:"users"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

// --- Customers ---

type createCustomerRequest struct {
	CustomerName      string `json:"customer_name"      validate:"required,max=100"`
	PhoneNumber       string `json:"phone_number"       validate:"required,max=32"`
	Affiliation       string `json:"affiliation"        validate:"max=100"`
	CustomerStatus    string `json:"customer_status"    validate:"omitempty,oneof=新客户 进群 已退群 已圈上 被拉黑 封号失联 重复 返回"`
	TransactionStatus string `json:"transaction_status" validate:"omitempty,oneof=已成交 未成交 待跟进"`
	Notes             string `json:"notes"              validate:"max=2000"`
}

type customerStatusRequest struct {
	CustomerStatus string `json:"customer_status" validate:"required,oneof=新客户 进群 已退群 已圈上 被拉黑 封号失联 重复 返回"`
}

type transactionStatusRequest struct {
	TransactionStatus string `json:"transaction_status" validate:"required,oneof=已成交 未成交 待跟进"`
}

type notesRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

type customerAffiliationRequest struct {
	// An empty affiliation clears the assignment.
	Affiliation string `json:"affiliation" validate:"max=100"`
}

type customerListResponse struct {
	Customers   []*domain.Customer `json:"customers"`
	TotalCount  int64              `json:"totalCount"`
	TotalPages  int                `json:"totalPages"`
	CurrentPage int                `json:"currentPage"`
}

type permissionResponse struct {
	HasPermission bool `json:"hasPermission"`
}

// --- Transaction details ---

type detailLineRequest struct {
	ProductName     string     `json:"product_name"     validate:"required,max=100"`
	Quantity        int        `json:"quantity"         validate:"required,gt=0"`
	UnitPrice       float64    `json:"unit_price"       validate:"gte=0"`
	TotalAmount     *float64   `json:"total_amount"     validate:"omitempty,gte=0"`
	TransactionTime *time.Time `json:"transaction_time"`
}

type createDetailsRequest struct {
	Details []detailLineRequest `json:"details" validate:"required,min=1,dive"`
}

type detailSummaryResponse struct {
	Details        []*domain.TransactionDetail `json:"details"`
	TotalQuantity  int                         `json:"totalQuantity"`
	TotalUnitPrice float64                     `json:"totalUnitPrice"`
	TotalAmount    float64                     `json:"totalAmount"`
	Products       []string                    `json:"products"`
	HasDetails     bool                        `json:"hasDetails"`
}

// --- Affiliations ---

type createAffiliationRequest struct {
	Name   string  `json:"name"   validate:"required,max=100"`
	Avatar *string `json:"avatar" validate:"omitempty,url"`
	Link   *string `json:"link"   validate:"omitempty,url"`
}

type updateAffiliationRequest struct {
	Avatar *string `json:"avatar" validate:"omitempty,url"`
	Link   *string `json:"link"   validate:"omitempty,url"`
}

// --- Mapping ---

func toDetailInputs(lines []detailLineRequest) []ports.CreateDetailInput {
	out := make([]ports.CreateDetailInput, 0, len(lines))
	for _, l := range lines {
		in := ports.CreateDetailInput{
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TotalAmount: l.TotalAmount,
		}
		if l.TransactionTime != nil {
			in.TransactionTime = *l.TransactionTime
		}
		out = append(out, in)
	}
	return out
}

func toSummaryResponse(s *ports.DetailSummary) detailSummaryResponse {
	details := s.Details
	if details == nil {
		details = []*domain.TransactionDetail{}
	}
	products := s.Products
	if products == nil {
		products = []string{}
	}
	return detailSummaryResponse{
		Details:        details,
		TotalQuantity:  s.TotalQuantity,
		TotalUnitPrice: s.TotalUnitPrice,
		TotalAmount:    s.TotalAmount,
		Products:       products,
		HasDetails:     s.HasDetails,
	}
}
