// Package health provides the engine's health report and HTTP surface.
package health

import (
	"github.com/vietddude/triage/internal/core/domain"
)

// SystemStatus represents the overall health state of the engine.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report is the synchronous read of in-memory engine state.
type Report struct {
	Status               SystemStatus     `json:"status"`
	TotalFaults          int64            `json:"total_faults"`
	Recoveries           int64            `json:"recoveries"`
	Escalations          int64            `json:"escalations"`
	RecoveryRatePercent  float64          `json:"recovery_rate_percent"`
	AvgRecoveryTimeMS    float64          `json:"avg_recovery_time_ms"`
	RecentFaults         []domain.Summary `json:"recent_faults"`
	RegisteredStrategies []string         `json:"registered_strategy_kinds"`
}
