package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the service answers queries from a possibly stale snapshot.
	Degraded Status = "degraded"
	// Unhealthy indicates no snapshot is available and queries fail.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckStale indicates the last refresh failed and an older snapshot is served.
	CheckStale CheckResult = "stale"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status          Status
	Checks          map[string]CheckResult
	SnapshotVersion uint64
	SnapshotAge     time.Duration
}

// Service coordinates health checks.
type Service struct {
	source  SourcePinger
	catalog CatalogInfo
	now     func() time.Time
}

// New creates a Service. source can be nil for sources without a connection.
func New(source SourcePinger, catalog CatalogInfo) *Service {
	return &Service{source: source, catalog: catalog, now: time.Now}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	var r Report

	if s.source != nil {
		if err := s.source.Ping(ctx); err != nil {
			checks["content_store"] = CheckError
		} else {
			checks["content_store"] = CheckOK
		}
	}

	info := s.catalog.Info()
	switch {
	case !info.Loaded:
		checks["catalog"] = CheckError
	case s.catalog.LastRefreshError() != nil:
		checks["catalog"] = CheckStale
	default:
		checks["catalog"] = CheckOK
	}
	if info.Loaded {
		r.SnapshotVersion = info.Version
		r.SnapshotAge = s.now().Sub(info.BuiltAt)
	}

	r.Status = Healthy
	for _, v := range checks {
		if v != CheckOK {
			r.Status = Degraded
			break
		}
	}
	if !info.Loaded {
		r.Status = Unhealthy
	}
	r.Checks = checks
	return r
}
