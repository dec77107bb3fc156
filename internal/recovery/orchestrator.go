package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/triage/internal/core/domain"
	"github.com/vietddude/triage/internal/infra/storage"
	"github.com/vietddude/triage/internal/metrics"
)

// Escalator surfaces a fault whose recovery is exhausted.
type Escalator interface {
	Escalate(ctx context.Context, rec *domain.FaultRecord)
}

// Notifier is the fire-and-forget observer channel.
type Notifier interface {
	Notify(ctx context.Context, event domain.Event)
}

// Config tunes the orchestrator's retry loop.
type Config struct {
	// MaxRetries is the number of retries after the first attempt; total
	// attempts per fault is MaxRetries+1.
	MaxRetries int

	// BaseDelay seeds the exponential backoff between attempts.
	BaseDelay time.Duration

	// MaxDelay caps the backoff.
	MaxDelay time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// Outcome is the structured result of one orchestration run. Strategy
// failures never surface as errors; only the final booleans are observable.
type Outcome struct {
	FaultID   string `json:"fault_id"`
	Recovered bool   `json:"recovered"`
	Strategy  string `json:"strategy,omitempty"`
	Result    any    `json:"result,omitempty"`
	Escalated bool   `json:"escalated"`
}

// Orchestrator drives the bounded retry loop around a registered strategy
// and hands exhausted faults to the escalator.
type Orchestrator struct {
	cfg       Config
	registry  *Registry
	faults    storage.FaultRepository
	agg       *metrics.Aggregate
	escalator Escalator
	notifier  Notifier
	log       *slog.Logger
}

// NewOrchestrator creates an orchestrator. The escalator and notifier may be
// nil; escalation and notification become no-ops then.
func NewOrchestrator(
	cfg Config,
	registry *Registry,
	faults storage.FaultRepository,
	agg *metrics.Aggregate,
	escalator Escalator,
	notifier Notifier,
) *Orchestrator {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultConfig().BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultConfig().MaxDelay
	}
	return &Orchestrator{
		cfg:       cfg,
		registry:  registry,
		faults:    faults,
		agg:       agg,
		escalator: escalator,
		notifier:  notifier,
		log:       slog.Default().With("component", "orchestrator"),
	}
}

// Registry exposes the strategy registry for startup overrides.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Handle classifies a fault, runs the retry loop around the registered
// strategy, and escalates on exhaustion. Strategy errors and panics are
// recorded as failed attempts and never propagate.
func (o *Orchestrator) Handle(ctx context.Context, fault domain.Fault, fctx domain.Context) *Outcome {
	start := time.Now()

	rec := &domain.FaultRecord{
		ID:        uuid.New().String(),
		Timestamp: start,
		Fault:     fault,
		Kind:      Classify(fault),
		Context:   fctx,
	}
	if err := o.faults.Save(ctx, rec); err != nil {
		o.log.Warn("Failed to store fault record", "fault_id", rec.ID, "error", err)
	}

	o.agg.RecordFault()
	metrics.FaultsTotal.WithLabelValues(rec.Kind.String()).Inc()

	strategy, found := o.registry.Lookup(rec.Kind)
	o.log.Debug("Handling fault",
		"fault_id", rec.ID,
		"kind", rec.Kind.String(),
		"strategy_registered", found,
	)

	totalAttempts := o.cfg.MaxRetries + 1
	for attempt := 1; attempt <= totalAttempts; attempt++ {
		result := o.attempt(ctx, strategy, found, fault, fctx)

		rec.Attempts = append(rec.Attempts, domain.RecoveryAttempt{
			Number:    attempt,
			Timestamp: time.Now(),
			Strategy:  result.Strategy,
			Success:   result.Success,
			Detail:    result.Detail,
		})

		if result.Success {
			rec.Resolved = true
			rec.Resolution = result.Value
			latency := time.Since(start)

			o.agg.RecordRecovery(latency)
			metrics.RecoveriesTotal.WithLabelValues(rec.Kind.String(), result.Strategy).Inc()
			metrics.RecoveryDuration.WithLabelValues(rec.Kind.String()).Observe(latency.Seconds())

			if err := o.faults.Save(ctx, rec); err != nil {
				o.log.Warn("Failed to update fault record", "fault_id", rec.ID, "error", err)
			}
			o.notify(ctx, domain.Event{
				Type:    domain.EventFaultResolved,
				FaultID: rec.ID,
				Payload: map[string]any{
					"strategy": result.Strategy,
					"attempt":  attempt,
					"kind":     rec.Kind.String(),
				},
			})
			o.log.Info("Fault recovered",
				"fault_id", rec.ID,
				"strategy", result.Strategy,
				"attempt", attempt,
				"latency", latency,
			)

			return &Outcome{
				FaultID:   rec.ID,
				Recovered: true,
				Strategy:  result.Strategy,
				Result:    result.Value,
			}
		}

		if attempt < totalAttempts {
			if err := sleep(ctx, o.backoff(attempt)); err != nil {
				// Context gone; remaining attempts would not run anyway.
				break
			}
		}
	}

	if err := o.faults.Save(ctx, rec); err != nil {
		o.log.Warn("Failed to update fault record", "fault_id", rec.ID, "error", err)
	}

	if o.escalator != nil {
		o.escalator.Escalate(ctx, rec)
	}
	o.log.Warn("Fault recovery exhausted",
		"fault_id", rec.ID,
		"kind", rec.Kind.String(),
		"attempts", len(rec.Attempts),
	)

	return &Outcome{
		FaultID:   rec.ID,
		Escalated: true,
	}
}

// attempt runs one strategy invocation, converting absence, errors, and
// panics into failed results.
func (o *Orchestrator) attempt(
	ctx context.Context,
	strategy Strategy,
	found bool,
	fault domain.Fault,
	fctx domain.Context,
) (result *Result) {
	if !found {
		return &Result{Strategy: "none", Success: false, Detail: "no_strategy"}
	}

	defer func() {
		if r := recover(); r != nil {
			result = &Result{
				Strategy: strategy.Name(),
				Success:  false,
				Detail:   fmt.Sprintf("strategy panic: %v", r),
			}
		}
	}()

	res, err := strategy.Execute(ctx, fault, fctx)
	if err != nil {
		return &Result{Strategy: strategy.Name(), Success: false, Detail: err.Error()}
	}
	if res == nil {
		return &Result{Strategy: strategy.Name(), Success: false, Detail: "strategy returned no result"}
	}
	return res
}

// backoff computes min(maxDelay, baseDelay * 2^(attempt-1)).
func (o *Orchestrator) backoff(attempt int) time.Duration {
	delay := o.cfg.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= o.cfg.MaxDelay {
			return o.cfg.MaxDelay
		}
	}
	if delay > o.cfg.MaxDelay {
		return o.cfg.MaxDelay
	}
	return delay
}

func (o *Orchestrator) notify(ctx context.Context, event domain.Event) {
	if o.notifier == nil {
		return
	}
	o.notifier.Notify(ctx, event)
}
