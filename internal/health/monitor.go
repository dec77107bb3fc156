package health

import (
	"context"
	"log/slog"

	"github.com/vietddude/triage/internal/core/domain"
	"github.com/vietddude/triage/internal/infra/storage"
	"github.com/vietddude/triage/internal/metrics"
)

// recentWindow is how many fault summaries the report carries.
const recentWindow = 10

// StrategySource exposes the registered strategy kinds.
type StrategySource interface {
	Registered() []string
}

// Monitor builds health reports from the metrics aggregate and the fault
// store. No I/O: reads are in-memory only.
type Monitor struct {
	agg        *metrics.Aggregate
	faults     storage.FaultRepository
	strategies StrategySource
	log        *slog.Logger
}

// NewMonitor creates a health monitor.
func NewMonitor(agg *metrics.Aggregate, faults storage.FaultRepository, strategies StrategySource) *Monitor {
	return &Monitor{
		agg:        agg,
		faults:     faults,
		strategies: strategies,
		log:        slog.Default().With("component", "health"),
	}
}

// Check assembles the current health report.
func (m *Monitor) Check(ctx context.Context) Report {
	snap := m.agg.Snapshot()

	report := Report{
		Status:               statusFor(snap.TotalFaults, snap.Recoveries, snap.Escalations),
		TotalFaults:          snap.TotalFaults,
		Recoveries:           snap.Recoveries,
		Escalations:          snap.Escalations,
		RecoveryRatePercent:  snap.RecoveryRate * 100,
		AvgRecoveryTimeMS:    snap.AvgRecoveryTime,
		RegisteredStrategies: m.strategies.Registered(),
	}

	recent, err := m.faults.Recent(ctx, recentWindow)
	if err != nil {
		m.log.Warn("Failed to read recent faults", "error", err)
	}
	report.RecentFaults = make([]domain.Summary, 0, len(recent))
	for _, rec := range recent {
		report.RecentFaults = append(report.RecentFaults, rec.Summarize())
	}

	return report
}

// statusFor evaluates aggregate counters. Escalations degrade the engine;
// more escalations than recoveries over a meaningful sample is critical.
func statusFor(total, recoveries, escalations int64) SystemStatus {
	switch {
	case total >= 10 && escalations > recoveries:
		return StatusCritical
	case escalations > 0:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}
