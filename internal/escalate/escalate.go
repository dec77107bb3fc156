// Package escalate surfaces unrecovered faults to humans: it computes
// severity, routes to an escalation target, dispatches alerts, opens
// incidents for critical faults, and writes records to the persistence sink.
package escalate

import (
	"context"

	"github.com/vietddude/triage/internal/core/domain"
)

// AlertDispatcher delivers escalation alerts. Dispatch failures are logged
// and swallowed by the escalator; they never propagate.
type AlertDispatcher interface {
	SendAlert(ctx context.Context, alert domain.Alert) error
}

// IncidentTracker opens incidents for critical escalations.
type IncidentTracker interface {
	CreateIncident(ctx context.Context, inc domain.Incident) (string, error)
}

// Notifier is the fire-and-forget observer channel.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event)
}

// PersistenceSink durably stores exhausted fault records when persistence is
// enabled. Failures are logged, not retried.
type PersistenceSink interface {
	Save(ctx context.Context, rec *domain.FaultRecord) error
}
