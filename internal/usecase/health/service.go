package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates at least one failing component.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	engine  Pinger
	journal Pinger
}

// New creates a Service. journal can be nil.
func New(engine, journal Pinger) *Service {
	return &Service{engine: engine, journal: journal}
}

// Check pings the search engine and, when configured, the document journal.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{"engine": probe(ctx, s.engine)}
	if s.journal != nil {
		checks["journal"] = probe(ctx, s.journal)
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func probe(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
