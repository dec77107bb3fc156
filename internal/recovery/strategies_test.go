package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/vietddude/triage/internal/core/domain"
)

// =============================================================================
// Collaborator mocks
// =============================================================================

type mockDatastore struct {
	err error
}

func (m *mockDatastore) Ping(ctx context.Context) error { return m.err }

type mockPool struct {
	resets int
	err    error
}

func (m *mockPool) Reset() error {
	m.resets++
	return m.err
}

type mockTokens struct {
	err error
}

func (m *mockTokens) Refresh(ctx context.Context) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "new-token", nil
}

type mockAuth struct {
	err error
}

func (m *mockAuth) Authenticate(ctx context.Context) error { return m.err }

type mockRegistry struct {
	instance string
	err      error
}

func (m *mockRegistry) Failover(ctx context.Context, service string) (string, error) {
	return m.instance, m.err
}

type mockRestarter struct {
	restarted []string
	err       error
}

func (m *mockRestarter) Restart(ctx context.Context, service string) error {
	m.restarted = append(m.restarted, service)
	return m.err
}

// =============================================================================
// Database recovery
// =============================================================================

func TestDatabaseRecovery_FallbackDatabase(t *testing.T) {
	s := &DatabaseRecovery{BaseDelay: time.Millisecond}
	fctx := domain.Context{domain.CtxFallbackDatabase: &mockDatastore{}}

	res, err := s.Execute(context.Background(), domain.Fault{Message: "Database connection refused"}, fctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Strategy != "fallback_database" {
		t.Errorf("expected fallback_database success, got %+v", res)
	}
}

func TestDatabaseRecovery_PoolReset(t *testing.T) {
	s := &DatabaseRecovery{BaseDelay: time.Millisecond}
	pool := &mockPool{}
	fctx := domain.Context{domain.CtxConnectionPool: pool}

	res, err := s.Execute(context.Background(), domain.Fault{}, fctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Strategy != "connection_pool_reset" {
		t.Errorf("expected connection_pool_reset success, got %+v", res)
	}
	if pool.resets != 1 {
		t.Errorf("expected 1 reset, got %d", pool.resets)
	}
}

func TestDatabaseRecovery_UnreachableFallbackUsesPool(t *testing.T) {
	s := &DatabaseRecovery{BaseDelay: time.Millisecond}
	fctx := domain.Context{
		domain.CtxFallbackDatabase: &mockDatastore{err: errors.New("down")},
		domain.CtxConnectionPool:   &mockPool{},
	}

	res, err := s.Execute(context.Background(), domain.Fault{}, fctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Strategy != "connection_pool_reset" {
		t.Errorf("expected pool reset when fallback unreachable, got %+v", res)
	}
}

func TestDatabaseRecovery_NoHandles(t *testing.T) {
	s := &DatabaseRecovery{BaseDelay: time.Millisecond}

	res, err := s.Execute(context.Background(), domain.Fault{}, domain.Context{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success || res.Strategy != "retry" {
		t.Errorf("expected retry failure, got %+v", res)
	}
}

// =============================================================================
// Rate-limit recovery
// =============================================================================

func TestRateLimitRecovery_ParsesRetryAfter(t *testing.T) {
	fault := domain.Fault{Message: "Rate limit exceeded - retry after 30 seconds"}
	if d := retryAfterHint(fault, domain.Context{}); d != 30*time.Second {
		t.Errorf("expected 30s hint, got %v", d)
	}
}

func TestRateLimitRecovery_ContextHintWins(t *testing.T) {
	fault := domain.Fault{Message: "retry after 30 seconds"}
	fctx := domain.Context{domain.CtxRetryAfter: 5 * time.Second}
	if d := retryAfterHint(fault, fctx); d != 5*time.Second {
		t.Errorf("expected context hint to win, got %v", d)
	}
}

func TestRateLimitRecovery_GRPCRetryInfo(t *testing.T) {
	st, err := status.New(codes.ResourceExhausted, "quota exceeded").
		WithDetails(&errdetails.RetryInfo{RetryDelay: durationpb.New(12 * time.Second)})
	if err != nil {
		t.Fatalf("build status: %v", err)
	}

	fault := domain.Fault{Message: "quota exceeded", Err: st.Err()}
	if d := retryAfterHint(fault, domain.Context{}); d != 12*time.Second {
		t.Errorf("expected 12s from RetryInfo detail, got %v", d)
	}
}

func TestRateLimitRecovery_CapsWaitAndSucceeds(t *testing.T) {
	s := &RateLimitRecovery{MaxDelay: 20 * time.Millisecond}
	fault := domain.Fault{Message: "rate limit - retry after 30 seconds"}

	start := time.Now()
	res, err := s.Execute(context.Background(), fault, domain.Context{})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Strategy != "rate_limit_backoff" {
		t.Errorf("expected rate_limit_backoff success, got %+v", res)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("wait was not capped at MaxDelay, took %v", elapsed)
	}
}

// =============================================================================
// Auth recovery
// =============================================================================

func TestAuthRecovery_TokenRefresh(t *testing.T) {
	s := &AuthRecovery{}
	fctx := domain.Context{domain.CtxTokenManager: &mockTokens{}}

	res, err := s.Execute(context.Background(), domain.Fault{}, fctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Strategy != "token_refresh" {
		t.Errorf("expected token_refresh success, got %+v", res)
	}
}

func TestAuthRecovery_FallsBackToReauth(t *testing.T) {
	s := &AuthRecovery{}
	fctx := domain.Context{
		domain.CtxTokenManager: &mockTokens{err: errors.New("refresh rejected")},
		domain.CtxAuthService:  &mockAuth{},
	}

	res, err := s.Execute(context.Background(), domain.Fault{}, fctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Strategy != "re_authentication" {
		t.Errorf("expected re_authentication success, got %+v", res)
	}
}

func TestAuthRecovery_NothingAvailable(t *testing.T) {
	s := &AuthRecovery{}

	res, err := s.Execute(context.Background(), domain.Fault{}, domain.Context{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success || res.Strategy != "auth_recovery" {
		t.Errorf("expected auth_recovery failure, got %+v", res)
	}
}

// =============================================================================
// Timeout recovery
// =============================================================================

func TestTimeoutRecovery_IncreasesTimeout(t *testing.T) {
	s := &TimeoutRecovery{MaxTimeout: 2 * time.Minute}
	fctx := domain.Context{
		domain.CtxTimeoutEscalation: true,
		domain.CtxCurrentTimeout:    20 * time.Second,
	}

	res, err := s.Execute(context.Background(), domain.Fault{}, fctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Strategy != "increased_timeout" {
		t.Errorf("expected increased_timeout success, got %+v", res)
	}
	if res.Value != 40*time.Second {
		t.Errorf("expected doubled timeout 40s, got %v", res.Value)
	}
}

func TestTimeoutRecovery_CapsAtMaxTimeout(t *testing.T) {
	s := &TimeoutRecovery{MaxTimeout: 1 * time.Minute}
	fctx := domain.Context{
		domain.CtxTimeoutEscalation: true,
		domain.CtxCurrentTimeout:    45 * time.Second,
	}

	res, _ := s.Execute(context.Background(), domain.Fault{}, fctx)
	if res.Value != 1*time.Minute {
		t.Errorf("expected cap at 1m, got %v", res.Value)
	}
}

func TestTimeoutRecovery_AlternateEndpoint(t *testing.T) {
	s := &TimeoutRecovery{MaxTimeout: time.Minute}
	fctx := domain.Context{domain.CtxAlternateEndpoint: "https://fallback.example.com"}

	res, err := s.Execute(context.Background(), domain.Fault{}, fctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Strategy != "alternative_endpoint" {
		t.Errorf("expected alternative_endpoint success, got %+v", res)
	}
}

func TestTimeoutRecovery_NothingAvailable(t *testing.T) {
	s := &TimeoutRecovery{MaxTimeout: time.Minute}

	res, err := s.Execute(context.Background(), domain.Fault{}, domain.Context{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Errorf("expected failure, got %+v", res)
	}
}

// =============================================================================
// Dependent-service recovery
// =============================================================================

func TestDependentServiceRecovery_Failover(t *testing.T) {
	s := &DependentServiceRecovery{}
	fctx := domain.Context{
		domain.CtxServiceName:     "spotify",
		domain.CtxServiceRegistry: &mockRegistry{instance: "spotify-eu-2"},
	}

	res, err := s.Execute(context.Background(), domain.Fault{}, fctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Strategy != "spotify_failover" {
		t.Errorf("expected spotify_failover success, got %+v", res)
	}
}

func TestDependentServiceRecovery_Restart(t *testing.T) {
	s := &DependentServiceRecovery{}
	restarter := &mockRestarter{}
	fctx := domain.Context{
		domain.CtxServiceName: "musicbrainz",
		domain.CtxRestartable: true,
		domain.CtxRestarter:   restarter,
	}

	res, err := s.Execute(context.Background(), domain.Fault{}, fctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Strategy != "musicbrainz_restart" {
		t.Errorf("expected musicbrainz_restart success, got %+v", res)
	}
	if len(restarter.restarted) != 1 || restarter.restarted[0] != "musicbrainz" {
		t.Errorf("expected musicbrainz restart, got %v", restarter.restarted)
	}
}

func TestDependentServiceRecovery_FailoverErrorPropagates(t *testing.T) {
	s := &DependentServiceRecovery{}
	fctx := domain.Context{
		domain.CtxServiceRegistry: &mockRegistry{err: errors.New("no instances")},
	}

	if _, err := s.Execute(context.Background(), domain.Fault{}, fctx); err == nil {
		t.Error("expected failover error to surface as strategy error")
	}
}

func TestDependentServiceRecovery_NothingAvailable(t *testing.T) {
	s := &DependentServiceRecovery{}

	res, err := s.Execute(context.Background(), domain.Fault{}, domain.Context{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Errorf("expected failure, got %+v", res)
	}
}
