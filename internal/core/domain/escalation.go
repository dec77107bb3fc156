package domain

import "time"

// Severity is the four-level ordinal used to pick escalation urgency.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Alert is the payload dispatched to the alerting collaborator when recovery
// is exhausted.
type Alert struct {
	ErrorID   string            `json:"error_id"`
	Timestamp time.Time         `json:"timestamp"`
	Severity  Severity          `json:"severity"`
	Target    string            `json:"target"`
	Summary   Summary           `json:"summary"`
	Context   map[string]any    `json:"context,omitempty"`
	Attempts  []RecoveryAttempt `json:"attempts"`
}

// IncidentStatus tracks an incident's lifecycle.
type IncidentStatus string

const (
	IncidentOpen     IncidentStatus = "OPEN"
	IncidentResolved IncidentStatus = "RESOLVED"
)

// Incident is opened for CRITICAL escalations.
type Incident struct {
	ID          string         `json:"id"`
	ErrorID     string         `json:"error_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Severity    Severity       `json:"severity"`
	Status      IncidentStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	Tags        []string       `json:"tags,omitempty"`
}
