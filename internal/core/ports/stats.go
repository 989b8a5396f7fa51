package ports

import "time"

// Metric is a single dashboard figure with its change against the previous window.
type Metric struct {
	Value  float64 `json:"value"`
	Change string  `json:"change"`
}

// PeriodInfo describes the window a dashboard was computed for.
type PeriodInfo struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Period    string    `json:"period"`
}

// DashboardStats is the result of GetDashboardStats.
type DashboardStats struct {
	TransactionAmount Metric     `json:"transactionAmount"`
	TransactionCount  Metric     `json:"transactionCount"`
	AvgOrderValue     Metric     `json:"avgOrderValue"`
	CustomerCount     Metric     `json:"customerCount"`
	PeriodInfo        PeriodInfo `json:"periodInfo"`
}

// BucketCount is one bucket of a rollup.
type BucketCount struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Breakdown holds the status rollups shared by affiliation and user stats.
type Breakdown struct {
	CustomerCount     int           `json:"customerCount"`
	CustomerStatus    []BucketCount `json:"customerStatus"`
	TransactionStatus []BucketCount `json:"transactionStatus"`
	TotalAmount       float64       `json:"totalAmount"`
}

// AffiliationStats is one row of GetCustomerStatsByAffiliation.
type AffiliationStats struct {
	Affiliation string  `json:"affiliation"`
	Avatar      *string `json:"avatar,omitempty"`
	Link        *string `json:"link,omitempty"`
	SubmitUser  string  `json:"submitUser,omitempty"`
	Breakdown
}

// WindowStats reports activity inside a trailing window.
type WindowStats struct {
	NewCustomers int     `json:"newCustomers"`
	Revenue      float64 `json:"revenue"`
}

// UserStats is one row of GetUsersAnalysisData.
type UserStats struct {
	UserID           int64       `json:"userId"`
	Username         string      `json:"username"`
	Email            string      `json:"email"`
	Role             string      `json:"role"`
	LastLogin        *time.Time  `json:"lastLogin"`
	AvgCustomerValue float64     `json:"avgCustomerValue"`
	ConversionRate   float64     `json:"conversionRate"`
	Last7Days        WindowStats `json:"last7Days"`
	Last30Days       WindowStats `json:"last30Days"`
	Breakdown
}
