package escalate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/triage/internal/core/domain"
	"github.com/vietddude/triage/internal/metrics"
)

// Config tunes the escalator.
type Config struct {
	// PersistErrors enables writing exhausted fault records to the sink.
	PersistErrors bool

	// ContextKeys limits which context keys are copied into alert payloads.
	// Empty means the default subset.
	ContextKeys []string
}

var defaultAlertContextKeys = []string{
	domain.CtxUserCount,
	domain.CtxServiceName,
	domain.CtxCriticalDatabase,
	domain.CtxAlternateEndpoint,
}

// Escalator implements the escalation flow of an exhausted fault: severity,
// target, alert, optional incident, optional persistence. None of its
// collaborator failures propagate to the orchestrator.
type Escalator struct {
	cfg       Config
	alerts    AlertDispatcher
	incidents IncidentTracker
	sink      PersistenceSink
	notifier  Notifier
	agg       *metrics.Aggregate
	log       *slog.Logger
}

// NewEscalator creates an escalator. Any collaborator may be nil; the
// corresponding step is skipped.
func NewEscalator(
	cfg Config,
	alerts AlertDispatcher,
	incidents IncidentTracker,
	sink PersistenceSink,
	notifier Notifier,
	agg *metrics.Aggregate,
) *Escalator {
	if len(cfg.ContextKeys) == 0 {
		cfg.ContextKeys = defaultAlertContextKeys
	}
	return &Escalator{
		cfg:       cfg,
		alerts:    alerts,
		incidents: incidents,
		sink:      sink,
		notifier:  notifier,
		agg:       agg,
		log:       slog.Default().With("component", "escalator"),
	}
}

// Escalate marks the record escalated, dispatches an alert, opens an
// incident for critical severity, and persists the record when enabled.
func (e *Escalator) Escalate(ctx context.Context, rec *domain.FaultRecord) {
	now := time.Now()
	rec.Escalated = true
	rec.EscalatedAt = &now

	severity := ComputeSeverity(rec)
	target := RouteTarget(rec, severity)

	e.agg.RecordEscalation()
	metrics.EscalationsTotal.WithLabelValues(string(severity), target).Inc()

	e.log.Warn("Escalating fault",
		"fault_id", rec.ID,
		"kind", rec.Kind.String(),
		"severity", severity,
		"target", target,
	)

	e.notify(ctx, domain.Event{
		Type:    domain.EventFaultEscalated,
		FaultID: rec.ID,
		Payload: map[string]any{"severity": string(severity), "target": target},
	})

	e.sendAlert(ctx, rec, severity, target)

	if severity == domain.SeverityCritical {
		e.openIncident(ctx, rec, severity)
	}

	if e.cfg.PersistErrors && e.sink != nil {
		if err := e.sink.Save(ctx, rec); err != nil {
			e.log.Error("Failed to persist fault record", "fault_id", rec.ID, "error", err)
		}
	}
}

func (e *Escalator) sendAlert(ctx context.Context, rec *domain.FaultRecord, severity domain.Severity, target string) {
	if e.alerts == nil {
		return
	}

	alert := domain.Alert{
		ErrorID:   rec.ID,
		Timestamp: time.Now(),
		Severity:  severity,
		Target:    target,
		Summary:   rec.Summarize(),
		Context:   e.alertContext(rec.Context),
		Attempts:  rec.Attempts,
	}

	if err := e.alerts.SendAlert(ctx, alert); err != nil {
		// Alerting is best effort; a dead alert channel must not take the
		// engine down with it.
		e.log.Error("Failed to dispatch alert", "fault_id", rec.ID, "target", target, "error", err)
		return
	}

	e.notify(ctx, domain.Event{
		Type:    domain.EventAlertSent,
		FaultID: rec.ID,
		Payload: map[string]any{"target": target, "severity": string(severity)},
	})
}

func (e *Escalator) openIncident(ctx context.Context, rec *domain.FaultRecord, severity domain.Severity) {
	if e.incidents == nil {
		return
	}

	inc := domain.Incident{
		ID:          uuid.New().String(),
		ErrorID:     rec.ID,
		Title:       fmt.Sprintf("[%s] %s", rec.Kind, truncate(rec.Fault.Message, 120)),
		Description: fmt.Sprintf("Recovery exhausted after %d attempts: %s", len(rec.Attempts), rec.Fault.Message),
		Severity:    severity,
		Status:      domain.IncidentOpen,
		CreatedAt:   time.Now(),
		Tags:        []string{"triage", rec.Kind.String()},
	}

	id, err := e.incidents.CreateIncident(ctx, inc)
	if err != nil {
		e.log.Error("Failed to create incident", "fault_id", rec.ID, "error", err)
		return
	}

	e.log.Info("Incident opened", "fault_id", rec.ID, "incident_id", id)
	e.notify(ctx, domain.Event{
		Type:    domain.EventIncidentCreated,
		FaultID: rec.ID,
		Payload: map[string]any{"incident_id": id, "severity": string(severity)},
	})
}

// alertContext copies the configured subset of context keys. Collaborator
// handles stay out of alert payloads.
func (e *Escalator) alertContext(fctx domain.Context) map[string]any {
	if len(fctx) == 0 {
		return nil
	}
	out := make(map[string]any)
	for _, key := range e.cfg.ContextKeys {
		if v, ok := fctx[key]; ok {
			out[key] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (e *Escalator) notify(ctx context.Context, event domain.Event) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(ctx, event)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
