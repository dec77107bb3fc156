package domain

import (
	"context"
	"time"
)

// Context is the opaque key-value bag callers attach to a fault. Collaborator
// handles (connection pools, token managers, alternate endpoints) travel in
// here so strategies stay stateless across invocations.
type Context map[string]any

// Well-known context keys consumed by the built-in strategies and the
// escalation manager.
const (
	CtxFallbackDatabase  = "fallback_database"
	CtxConnectionPool    = "connection_pool"
	CtxRetryAfter        = "retry_after"
	CtxTokenManager      = "token_manager"
	CtxAuthService       = "auth_service"
	CtxTimeoutEscalation = "timeout_escalation"
	CtxCurrentTimeout    = "current_timeout"
	CtxAlternateEndpoint = "alternate_endpoint"
	CtxServiceName       = "service_name"
	CtxServiceRegistry   = "service_registry"
	CtxRestartable       = "restartable"
	CtxRestarter         = "restarter"
	CtxUserCount         = "user_count"
	CtxCriticalDatabase  = "critical_database"
	CtxRetriesExhausted  = "retries_exhausted"
)

// Datastore is a minimal handle to an alternate datastore.
type Datastore interface {
	Ping(ctx context.Context) error
}

// ConnectionPool is a resettable pool handle.
type ConnectionPool interface {
	Reset() error
}

// TokenManager refreshes credentials for auth recovery.
type TokenManager interface {
	Refresh(ctx context.Context) (string, error)
}

// AuthService performs full re-authentication when a token refresh is not
// possible.
type AuthService interface {
	Authenticate(ctx context.Context) error
}

// ServiceRegistry fails a dependent service over to an alternate instance,
// returning the instance it switched to.
type ServiceRegistry interface {
	Failover(ctx context.Context, service string) (string, error)
}

// Restarter restarts a dependency marked restartable by the caller.
type Restarter interface {
	Restart(ctx context.Context, service string) error
}

// Bool reads a boolean flag from the bag.
func (c Context) Bool(key string) bool {
	v, _ := c[key].(bool)
	return v
}

// String reads a string value from the bag.
func (c Context) String(key string) string {
	v, _ := c[key].(string)
	return v
}

// Int reads an integer from the bag, tolerating float64 from decoded JSON.
func (c Context) Int(key string) int {
	switch v := c[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Duration reads a duration from the bag, tolerating raw seconds.
func (c Context) Duration(key string) time.Duration {
	switch v := c[key].(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	}
	return 0
}

// Datastore extracts a Datastore handle, nil when absent or mistyped.
func (c Context) Datastore(key string) Datastore {
	v, _ := c[key].(Datastore)
	return v
}

// Pool extracts a ConnectionPool handle.
func (c Context) Pool(key string) ConnectionPool {
	v, _ := c[key].(ConnectionPool)
	return v
}

// Tokens extracts a TokenManager handle.
func (c Context) Tokens(key string) TokenManager {
	v, _ := c[key].(TokenManager)
	return v
}

// Auth extracts an AuthService handle.
func (c Context) Auth(key string) AuthService {
	v, _ := c[key].(AuthService)
	return v
}

// Registry extracts a ServiceRegistry handle.
func (c Context) Registry(key string) ServiceRegistry {
	v, _ := c[key].(ServiceRegistry)
	return v
}

// Restarter extracts a Restarter handle.
func (c Context) Restarter(key string) Restarter {
	v, _ := c[key].(Restarter)
	return v
}
