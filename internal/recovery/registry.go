package recovery

import (
	"context"
	"sync"

	"github.com/vietddude/triage/internal/core/domain"
)

// Result is a strategy's outcome for one attempt.
type Result struct {
	Strategy string `json:"strategy"`
	Success  bool   `json:"success"`
	Detail   string `json:"detail,omitempty"`

	// Value carries the successful attempt's payload, e.g. a recommended
	// timeout or the endpoint failed over to.
	Value any `json:"value,omitempty"`
}

// Strategy is a pluggable recovery operation for one fault kind. Strategies
// are stateless across invocations; anything they need lives in the
// caller-supplied context bag. A returned error is recorded as a failed
// attempt and never propagates past the orchestrator.
type Strategy interface {
	Name() string
	Execute(ctx context.Context, fault domain.Fault, fctx domain.Context) (*Result, error)
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc struct {
	StrategyName string
	Fn           func(ctx context.Context, fault domain.Fault, fctx domain.Context) (*Result, error)
}

func (s StrategyFunc) Name() string { return s.StrategyName }

func (s StrategyFunc) Execute(ctx context.Context, fault domain.Fault, fctx domain.Context) (*Result, error) {
	return s.Fn(ctx, fault, fctx)
}

// Registry maps fault kinds to strategies. It is a fixed-size dispatch table
// indexed by the FaultKind enum. Registration overwrites silently: last
// registration wins, so callers can override defaults at startup.
type Registry struct {
	mu         sync.RWMutex
	strategies [domain.KindCount]Strategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register stores one strategy per kind. Out-of-range kinds are ignored.
func (r *Registry) Register(kind domain.FaultKind, s Strategy) {
	if kind < 0 || kind >= domain.KindCount {
		return
	}
	r.mu.Lock()
	r.strategies[kind] = s
	r.mu.Unlock()
}

// Lookup returns the strategy for a kind. Absence is a valid outcome, not an
// error.
func (r *Registry) Lookup(kind domain.FaultKind) (Strategy, bool) {
	if kind < 0 || kind >= domain.KindCount {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.strategies[kind]
	return s, s != nil
}

// Registered returns the kinds that currently have a strategy, for the
// health report.
func (r *Registry) Registered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var kinds []string
	for k := domain.FaultKind(0); k < domain.KindCount; k++ {
		if r.strategies[k] != nil {
			kinds = append(kinds, k.String())
		}
	}
	return kinds
}
