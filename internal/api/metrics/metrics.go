// Package metrics defines and registers all custom Prometheus metrics for the
// CRM API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crm"

// ── Customer metrics ──────────────────────────────────────────────────────────

// CustomersCreatedTotal counts newly created customers.
// Label:
//   - customer_status: the initial status label (e.g. "新客户")
var CustomersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "customers_created_total",
		Help:      "Total number of customers created, by initial status.",
	},
	[]string{"customer_status"},
)

// DetailsCreatedTotal counts transaction detail lines recorded.
var DetailsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "details_created_total",
		Help:      "Total number of transaction detail lines recorded.",
	},
)

// ── Access metrics ────────────────────────────────────────────────────────────

// PermissionDeniedTotal counts requests rejected by an ownership or role check.
// Label:
//   - route: the matched route path (e.g. "/v1/customers/:id/notes")
var PermissionDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_denied_total",
		Help:      "Total number of requests rejected with 403, by route.",
	},
	[]string{"route"},
)

// ── Stats metrics ─────────────────────────────────────────────────────────────

// StatsCacheTotal counts dashboard cache lookups.
// Label:
//   - result: "hit" or "miss"
var StatsCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stats_cache_total",
		Help:      "Total number of dashboard cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ObserveStatsCache records one cache lookup outcome.
func ObserveStatsCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	StatsCacheTotal.WithLabelValues(result).Inc()
}
