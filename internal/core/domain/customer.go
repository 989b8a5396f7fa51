package domain

import "time"

// CustomerStatus is the relationship state of a customer.
type CustomerStatus string

const (
	CustomerNew         CustomerStatus = "新客户"
	CustomerInGroup     CustomerStatus = "进群"
	CustomerLeftGroup   CustomerStatus = "已退群"
	CustomerCircled     CustomerStatus = "已圈上"
	CustomerBlacklisted CustomerStatus = "被拉黑"
	CustomerLost        CustomerStatus = "封号失联"
	CustomerDuplicate   CustomerStatus = "重复"
	CustomerReturned    CustomerStatus = "返回"
)

// CustomerStatusBuckets are the fixed rollup buckets, in display order.
// CustomerNew is a valid value but not a bucket.
var CustomerStatusBuckets = []CustomerStatus{
	CustomerInGroup,
	CustomerLeftGroup,
	CustomerCircled,
	CustomerBlacklisted,
	CustomerLost,
	CustomerDuplicate,
	CustomerReturned,
}

// Valid reports whether s is an assignable customer status.
func (s CustomerStatus) Valid() bool {
	if s == CustomerNew {
		return true
	}
	for _, b := range CustomerStatusBuckets {
		if b == s {
			return true
		}
	}
	return false
}

// TransactionStatus is the deal state of a customer.
type TransactionStatus string

const (
	DealClosed   TransactionStatus = "已成交"
	DealOpen     TransactionStatus = "未成交"
	DealFollowUp TransactionStatus = "待跟进"
)

// TransactionStatusBuckets lists every transaction status in display order.
var TransactionStatusBuckets = []TransactionStatus{DealClosed, DealOpen, DealFollowUp}

// Valid reports whether s is a known transaction status.
func (s TransactionStatus) Valid() bool {
	for _, b := range TransactionStatusBuckets {
		if b == s {
			return true
		}
	}
	return false
}

// Customer is a lead or client record owned by the staff member who submitted it.
//
// Any authorized caller may set either status field to any valid label; there
// is no transition graph. SubmitUser is a snapshot of the creator's username
// and does not follow later renames.
type Customer struct {
	ID                int64             `json:"id"`
	CustomerName      string            `json:"customer_name"`
	PhoneNumber       string            `json:"phone_number"`
	Affiliation       *string           `json:"affiliation"`
	CustomerStatus    CustomerStatus    `json:"customer_status"`
	TransactionStatus TransactionStatus `json:"transaction_status"`
	Notes             string            `json:"notes"`
	SubmitUser        string            `json:"submit_user"`
	SubmitTime        time.Time         `json:"submit_time"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Owner implements Owned.
func (c *Customer) Owner() string { return c.SubmitUser }

// AffiliationName returns the affiliation or "" when unassigned.
func (c *Customer) AffiliationName() string {
	if c.Affiliation == nil {
		return ""
	}
	return *c.Affiliation
}
