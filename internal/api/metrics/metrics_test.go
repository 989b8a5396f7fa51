package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveStatsCache(t *testing.T) {
	hits := testutil.ToFloat64(StatsCacheTotal.WithLabelValues("hit"))
	misses := testutil.ToFloat64(StatsCacheTotal.WithLabelValues("miss"))

	ObserveStatsCache(true)
	ObserveStatsCache(false)
	ObserveStatsCache(false)

	if got := testutil.ToFloat64(StatsCacheTotal.WithLabelValues("hit")) - hits; got != 1 {
		t.Errorf("expected 1 hit, got %v", got)
	}
	if got := testutil.ToFloat64(StatsCacheTotal.WithLabelValues("miss")) - misses; got != 2 {
		t.Errorf("expected 2 misses, got %v", got)
	}
}
