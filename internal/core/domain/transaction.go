package domain

import "time"

// TransactionDetail is a single closed sale recorded against a customer.
type TransactionDetail struct {
	ID              int64     `json:"id"`
	CustomerID      int64     `json:"customer_id"`
	ProductName     string    `json:"product_name"`
	Quantity        int       `json:"quantity"`
	UnitPrice       float64   `json:"unit_price"`
	TotalAmount     float64   `json:"total_amount"`
	TransactionTime time.Time `json:"transaction_time"`
}

// ResolveTotal returns the supplied total, or quantity × unit price when none was given.
func ResolveTotal(quantity int, unitPrice float64, total *float64) float64 {
	if total != nil {
		return *total
	}
	return float64(quantity) * unitPrice
}
