package service

import (
	"fmt"
	"math"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

// percentage returns value/total as a percent rounded to two decimals, or 0 when total is 0.
func percentage(value, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(value)/float64(total)*100*100) / 100
}

// change formats the relative change between two figures with one decimal.
// A zero baseline reports "100.0".
func change(cur, prev float64) string {
	if prev == 0 {
		return "100.0"
	}
	return fmt.Sprintf("%.1f", (cur-prev)/prev*100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// breakdown rolls customers up by both status dimensions and sums their amounts.
func breakdown(customers []*domain.Customer, amounts map[int64]float64) ports.Breakdown {
	byStatus := make(map[domain.CustomerStatus]int, len(domain.CustomerStatusBuckets))
	byDeal := make(map[domain.TransactionStatus]int, len(domain.TransactionStatusBuckets))
	var total float64
	for _, c := range customers {
		byStatus[c.CustomerStatus]++
		byDeal[c.TransactionStatus]++
		total += amounts[c.ID]
	}

	n := len(customers)
	out := ports.Breakdown{
		CustomerCount:     n,
		CustomerStatus:    make([]ports.BucketCount, 0, len(domain.CustomerStatusBuckets)),
		TransactionStatus: make([]ports.BucketCount, 0, len(domain.TransactionStatusBuckets)),
		TotalAmount:       round2(total),
	}
	for _, s := range domain.CustomerStatusBuckets {
		out.CustomerStatus = append(out.CustomerStatus, ports.BucketCount{
			Label:      string(s),
			Count:      byStatus[s],
			Percentage: percentage(byStatus[s], n),
		})
	}
	for _, s := range domain.TransactionStatusBuckets {
		out.TransactionStatus = append(out.TransactionStatus, ports.BucketCount{
			Label:      string(s),
			Count:      byDeal[s],
			Percentage: percentage(byDeal[s], n),
		})
	}
	return out
}

// amountsByCustomer sums detail totals per customer.
func amountsByCustomer(details []*domain.TransactionDetail) map[int64]float64 {
	out := make(map[int64]float64)
	for _, d := range details {
		out[d.CustomerID] += d.TotalAmount
	}
	return out
}
