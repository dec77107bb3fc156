// Package control wires the engine together: storage, collaborators,
// strategy registry, orchestrator, escalator, and the health server.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pressly/goose/v3"

	"github.com/vietddude/triage/internal/core/config"
	"github.com/vietddude/triage/internal/core/domain"
	"github.com/vietddude/triage/internal/escalate"
	"github.com/vietddude/triage/internal/health"
	"github.com/vietddude/triage/internal/infra/httpclient"
	redisclient "github.com/vietddude/triage/internal/infra/redis"
	"github.com/vietddude/triage/internal/infra/storage"
	"github.com/vietddude/triage/internal/infra/storage/memory"
	"github.com/vietddude/triage/internal/infra/storage/postgres"
	"github.com/vietddude/triage/internal/metrics"
	"github.com/vietddude/triage/internal/recovery"
)

// Engine is the embedded fault engine instance. Constructed once at process
// start and passed by handle to call sites; there is no hidden global.
type Engine struct {
	cfg          *config.AppConfig
	agg          *metrics.Aggregate
	registry     *recovery.Registry
	orchestrator *recovery.Orchestrator
	escalator    *escalate.Escalator
	faults       storage.FaultRepository
	db           *postgres.DB
	redis        *redisclient.Client
	healthServer *health.Server
	client       *httpclient.Client
	log          *slog.Logger
}

// NewEngine creates an engine with all dependencies initialized. PostgreSQL
// and Redis are optional: without a database URL the bounded memory store is
// the only fault history, and without Redis events and alerts go to the log.
func NewEngine(cfg *config.AppConfig) (*Engine, error) {
	log := slog.Default().With("component", "engine")
	agg := metrics.NewAggregate()

	faults := memory.NewFaultStore(cfg.Recovery.HistoryLimit)

	var (
		db        *postgres.DB
		sink      escalate.PersistenceSink
		incidents storage.IncidentRepository
	)
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		sink = postgres.NewFaultRepo(db)
		incidents = postgres.NewIncidentRepo(db)
		log.Info("Using PostgreSQL persistence sink")
	} else {
		incidents = memory.NewIncidentStore()
		log.Info("No database configured, fault history is in-memory only")
	}

	var (
		notifier recovery.Notifier
		alerts   escalate.AlertDispatcher
		rds      *redisclient.Client
	)
	if cfg.Redis.URL != "" {
		var err error
		rds, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		notifier = rds
		alerts = rds
		log.Info("Using Redis for events and alert dispatch")
	} else {
		logged := &logCollaborators{log: log}
		notifier = logged
		alerts = logged
		log.Info("No redis configured, events and alerts go to the log")
	}

	registry := recovery.NewRegistry()
	recovery.RegisterDefaults(registry, recovery.StrategyConfig{
		BaseDelay:  cfg.Recovery.BaseDelay,
		MaxDelay:   cfg.Recovery.MaxDelay,
		MaxTimeout: cfg.Recovery.MaxTimeout,
	})

	escalator := escalate.NewEscalator(
		escalate.Config{PersistErrors: cfg.Escalation.PersistErrors},
		alerts,
		&repoIncidentTracker{repo: incidents},
		sink,
		notifier,
		agg,
	)

	orchestrator := recovery.NewOrchestrator(
		recovery.Config{
			MaxRetries: cfg.Recovery.MaxRetries,
			BaseDelay:  cfg.Recovery.BaseDelay,
			MaxDelay:   cfg.Recovery.MaxDelay,
		},
		registry,
		faults,
		agg,
		escalator,
		notifier,
	)

	monitor := health.NewMonitor(agg, faults, registry)
	healthServer := health.NewServer(monitor, cfg.Server.Port)

	client := httpclient.New(httpclient.Config{
		MaxRetries:  cfg.Client.MaxRetries,
		BaseBackoff: cfg.Client.BaseBackoff,
		MaxBackoff:  cfg.Client.MaxBackoff,
		Timeout:     cfg.Client.Timeout,
	})

	return &Engine{
		cfg:          cfg,
		agg:          agg,
		registry:     registry,
		orchestrator: orchestrator,
		escalator:    escalator,
		faults:       faults,
		db:           db,
		redis:        rds,
		healthServer: healthServer,
		client:       client,
		log:          log,
	}, nil
}

// Start brings up the health server.
func (e *Engine) Start(ctx context.Context) error {
	go func() {
		if err := e.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.log.Error("Health server failed", "error", err)
		}
	}()
	e.log.Info("Engine started", "port", e.cfg.Server.Port)
	return nil
}

// Stop shuts down the health server and closes connections.
func (e *Engine) Stop(ctx context.Context) error {
	if err := e.healthServer.Stop(ctx); err != nil {
		return err
	}
	if e.redis != nil {
		if pending, err := e.redis.PendingAlerts(ctx); err == nil && pending > 0 {
			e.log.Warn("Undelivered alerts remain on the queue", "pending", pending)
		}
		if err := e.redis.Close(); err != nil {
			e.log.Warn("Failed to close redis", "error", err)
		}
	}
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			e.log.Warn("Failed to close database", "error", err)
		}
	}
	e.log.Info("Engine stopped")
	return nil
}

// HandleFault runs one orchestration for the fault.
func (e *Engine) HandleFault(ctx context.Context, fault domain.Fault, fctx domain.Context) *recovery.Outcome {
	return e.orchestrator.Handle(ctx, fault, fctx)
}

// Registry exposes the strategy registry so the host can override defaults
// at startup.
func (e *Engine) Registry() *recovery.Registry {
	return e.registry
}

// HTTPClient returns the engine's resilient request client.
func (e *Engine) HTTPClient() *httpclient.Client {
	return e.client
}

// repoIncidentTracker adapts an incident repository to the escalator's
// tracker interface.
type repoIncidentTracker struct {
	repo storage.IncidentRepository
}

func (t *repoIncidentTracker) CreateIncident(ctx context.Context, inc domain.Incident) (string, error) {
	if err := t.repo.Create(ctx, &inc); err != nil {
		return "", err
	}
	return inc.ID, nil
}

// logCollaborators is the fallback notifier and alert dispatcher when no
// Redis is configured.
type logCollaborators struct {
	log *slog.Logger
}

func (l *logCollaborators) Notify(ctx context.Context, event domain.Event) {
	l.log.Info("Event", "type", event.Type, "fault_id", event.FaultID)
}

func (l *logCollaborators) SendAlert(ctx context.Context, alert domain.Alert) error {
	l.log.Warn("Alert",
		"fault_id", alert.ErrorID,
		"severity", alert.Severity,
		"target", alert.Target,
		"message", alert.Summary.Message,
	)
	return nil
}
