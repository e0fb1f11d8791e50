package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterQueryMetrics_Idempotent(t *testing.T) {
	RegisterQueryMetrics()
	RegisterQueryMetrics()

	if !isRegistered(SnapshotEntries) {
		t.Fatal("snapshot_entries must be registered")
	}
}

func TestQueryMetrics_Record(t *testing.T) {
	QueryWarningsTotal.WithLabelValues("sort").Inc()
	if v := testutil.ToFloat64(QueryWarningsTotal.WithLabelValues("sort")); v < 1 {
		t.Errorf("query_warnings_total{field=sort} = %f", v)
	}

	SnapshotEntries.Set(42)
	if v := testutil.ToFloat64(SnapshotEntries); v != 42 {
		t.Errorf("snapshot_entries = %f, want 42", v)
	}

	QueryStageDuration.WithLabelValues("sort").Observe(0.001)
	if n := testutil.CollectAndCount(QueryStageDuration); n == 0 {
		t.Error("expected stage duration observations")
	}
}

func isRegistered(c prometheus.Collector) bool {
	err := prometheus.Register(c)
	if err == nil {
		prometheus.Unregister(c)
		return false
	}
	_, ok := err.(prometheus.AlreadyRegisteredError)
	return ok
}
