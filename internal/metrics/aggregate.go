package metrics

import (
	"sync"
	"time"
)

// Aggregate holds process-wide fault counters. Initialized once at engine
// start, updated after each orchestration run, never reset. Prometheus
// counters above mirror these for scraping; Aggregate exists so the health
// report can read a consistent in-process snapshot without a registry query.
type Aggregate struct {
	mu           sync.RWMutex
	totalFaults  int64
	recoveries   int64
	escalations  int64
	totalLatency time.Duration
}

// NewAggregate creates an empty metrics aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{}
}

// RecordFault counts a fault entering the orchestrator.
func (a *Aggregate) RecordFault() {
	a.mu.Lock()
	a.totalFaults++
	a.mu.Unlock()
}

// RecordRecovery counts a successful recovery and folds its latency into the
// running average.
func (a *Aggregate) RecordRecovery(latency time.Duration) {
	a.mu.Lock()
	a.recoveries++
	a.totalLatency += latency
	a.mu.Unlock()
}

// RecordEscalation counts an escalation.
func (a *Aggregate) RecordEscalation() {
	a.mu.Lock()
	a.escalations++
	a.mu.Unlock()
}

// Snapshot is a read-only view of the aggregate.
type Snapshot struct {
	TotalFaults     int64   `json:"total_faults"`
	Recoveries      int64   `json:"recoveries"`
	Escalations     int64   `json:"escalations"`
	RecoveryRate    float64 `json:"recovery_rate"`
	AvgRecoveryTime float64 `json:"avg_recovery_time_ms"`
}

// Snapshot returns the current counters. RecoveryRate is recoveries over
// total faults; AvgRecoveryTime averages over recovered faults only.
func (a *Aggregate) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := Snapshot{
		TotalFaults: a.totalFaults,
		Recoveries:  a.recoveries,
		Escalations: a.escalations,
	}
	if a.totalFaults > 0 {
		s.RecoveryRate = float64(a.recoveries) / float64(a.totalFaults)
	}
	if a.recoveries > 0 {
		s.AvgRecoveryTime = float64(a.totalLatency.Milliseconds()) / float64(a.recoveries)
	}
	return s
}
