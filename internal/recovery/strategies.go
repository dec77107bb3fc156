package recovery

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"

	"github.com/vietddude/triage/internal/core/domain"
)

// StrategyConfig tunes the built-in strategies.
type StrategyConfig struct {
	// BaseDelay is waited by the database strategy before probing handles.
	BaseDelay time.Duration

	// MaxDelay caps the rate-limit strategy's wait.
	MaxDelay time.Duration

	// MaxTimeout caps the timeout strategy's doubled recommendation.
	MaxTimeout time.Duration
}

// DefaultStrategyConfig returns production defaults.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		BaseDelay:  1 * time.Second,
		MaxDelay:   60 * time.Second,
		MaxTimeout: 2 * time.Minute,
	}
}

// RegisterDefaults installs the built-in strategies for every kind that has
// one. Callers may re-register to override any of them afterwards.
func RegisterDefaults(r *Registry, cfg StrategyConfig) {
	r.Register(domain.DatabaseConnectionError, &DatabaseRecovery{BaseDelay: cfg.BaseDelay})
	r.Register(domain.RateLimitError, &RateLimitRecovery{MaxDelay: cfg.MaxDelay})
	r.Register(domain.AuthError, &AuthRecovery{})
	r.Register(domain.TimeoutError, &TimeoutRecovery{MaxTimeout: cfg.MaxTimeout})
	r.Register(domain.DependentServiceError, &DependentServiceRecovery{})
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// DatabaseRecovery waits out transient connection churn, then falls back to
// an alternate datastore or resets the connection pool when the caller
// supplied one.
type DatabaseRecovery struct {
	BaseDelay time.Duration
}

func (s *DatabaseRecovery) Name() string { return "database_recovery" }

func (s *DatabaseRecovery) Execute(ctx context.Context, fault domain.Fault, fctx domain.Context) (*Result, error) {
	if err := sleep(ctx, s.BaseDelay); err != nil {
		return nil, err
	}

	if db := fctx.Datastore(domain.CtxFallbackDatabase); db != nil {
		if err := db.Ping(ctx); err == nil {
			return &Result{
				Strategy: "fallback_database",
				Success:  true,
				Detail:   "switched to fallback datastore",
			}, nil
		}
	}

	if pool := fctx.Pool(domain.CtxConnectionPool); pool != nil {
		if err := pool.Reset(); err != nil {
			return nil, fmt.Errorf("connection pool reset: %w", err)
		}
		return &Result{
			Strategy: "connection_pool_reset",
			Success:  true,
			Detail:   "cleared stale connections",
		}, nil
	}

	return &Result{
		Strategy: "retry",
		Success:  false,
		Detail:   "no fallback datastore or connection pool available",
	}, nil
}

var retryAfterPattern = regexp.MustCompile(`(?i)retry[- ]after\s+(\d+)\s*(?:s|sec|second)`)

// RateLimitRecovery waits out a rate limit. The wait itself is the recovery:
// the strategy always reports success once the backoff has been applied.
type RateLimitRecovery struct {
	MaxDelay time.Duration
}

func (s *RateLimitRecovery) Name() string { return "rate_limit_recovery" }

func (s *RateLimitRecovery) Execute(ctx context.Context, fault domain.Fault, fctx domain.Context) (*Result, error) {
	wait := retryAfterHint(fault, fctx)
	if wait <= 0 {
		wait = s.MaxDelay
	}
	if wait > s.MaxDelay {
		wait = s.MaxDelay
	}

	if err := sleep(ctx, wait); err != nil {
		return nil, err
	}

	return &Result{
		Strategy: "rate_limit_backoff",
		Success:  true,
		Detail:   fmt.Sprintf("backed off %s", wait),
		Value:    wait,
	}, nil
}

// retryAfterHint extracts a retry-after duration from the caller context, a
// gRPC RetryInfo detail, or the fault message, in that order.
func retryAfterHint(fault domain.Fault, fctx domain.Context) time.Duration {
	if d := fctx.Duration(domain.CtxRetryAfter); d > 0 {
		return d
	}

	if fault.Err != nil {
		if st, ok := status.FromError(fault.Err); ok {
			for _, detail := range st.Details() {
				if info, ok := detail.(*errdetails.RetryInfo); ok && info.GetRetryDelay() != nil {
					if d := info.GetRetryDelay().AsDuration(); d > 0 {
						return d
					}
				}
			}
		}
	}

	if m := retryAfterPattern.FindStringSubmatch(fault.Message); m != nil {
		if secs, err := strconv.Atoi(m[1]); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}

	return 0
}

// AuthRecovery refreshes credentials through a token manager, or falls back
// to full re-authentication through an auth service.
type AuthRecovery struct{}

func (s *AuthRecovery) Name() string { return "auth_recovery" }

func (s *AuthRecovery) Execute(ctx context.Context, fault domain.Fault, fctx domain.Context) (*Result, error) {
	if tokens := fctx.Tokens(domain.CtxTokenManager); tokens != nil {
		if _, err := tokens.Refresh(ctx); err == nil {
			return &Result{
				Strategy: "token_refresh",
				Success:  true,
				Detail:   "refreshed access token",
			}, nil
		}
	}

	if auth := fctx.Auth(domain.CtxAuthService); auth != nil {
		if err := auth.Authenticate(ctx); err == nil {
			return &Result{
				Strategy: "re_authentication",
				Success:  true,
				Detail:   "re-authenticated session",
			}, nil
		}
	}

	return &Result{
		Strategy: "auth_recovery",
		Success:  false,
		Detail:   "no token manager or auth service available",
	}, nil
}

// TimeoutRecovery doubles the caller's timeout (capped) when the caller
// opted into timeout escalation, or suggests an alternate endpoint.
type TimeoutRecovery struct {
	MaxTimeout time.Duration
}

func (s *TimeoutRecovery) Name() string { return "timeout_recovery" }

func (s *TimeoutRecovery) Execute(ctx context.Context, fault domain.Fault, fctx domain.Context) (*Result, error) {
	if fctx.Bool(domain.CtxTimeoutEscalation) {
		current := fctx.Duration(domain.CtxCurrentTimeout)
		if current <= 0 {
			current = 30 * time.Second
		}
		next := current * 2
		if next > s.MaxTimeout {
			next = s.MaxTimeout
		}
		return &Result{
			Strategy: "increased_timeout",
			Success:  true,
			Detail:   fmt.Sprintf("recommend timeout %s", next),
			Value:    next,
		}, nil
	}

	if endpoint := fctx.String(domain.CtxAlternateEndpoint); endpoint != "" {
		return &Result{
			Strategy: "alternative_endpoint",
			Success:  true,
			Detail:   fmt.Sprintf("switch to %s", endpoint),
			Value:    endpoint,
		}, nil
	}

	return &Result{
		Strategy: "timeout_recovery",
		Success:  false,
		Detail:   "timeout escalation disabled and no alternate endpoint",
	}, nil
}

// DependentServiceRecovery fails a dependency over to an alternate instance,
// or restarts it when the caller marked it restartable.
type DependentServiceRecovery struct{}

func (s *DependentServiceRecovery) Name() string { return "dependent_service_recovery" }

func (s *DependentServiceRecovery) Execute(ctx context.Context, fault domain.Fault, fctx domain.Context) (*Result, error) {
	service := fctx.String(domain.CtxServiceName)
	if service == "" {
		service = "service"
	}

	if registry := fctx.Registry(domain.CtxServiceRegistry); registry != nil {
		instance, err := registry.Failover(ctx, service)
		if err != nil {
			return nil, fmt.Errorf("failover %s: %w", service, err)
		}
		return &Result{
			Strategy: service + "_failover",
			Success:  true,
			Detail:   fmt.Sprintf("failed over to %s", instance),
			Value:    instance,
		}, nil
	}

	if fctx.Bool(domain.CtxRestartable) {
		if restarter := fctx.Restarter(domain.CtxRestarter); restarter != nil {
			if err := restarter.Restart(ctx, service); err != nil {
				return nil, fmt.Errorf("restart %s: %w", service, err)
			}
			return &Result{
				Strategy: service + "_restart",
				Success:  true,
				Detail:   "restarted dependency",
			}, nil
		}
	}

	return &Result{
		Strategy: "dependent_service_recovery",
		Success:  false,
		Detail:   "no registry or restartable handle available",
	}, nil
}
