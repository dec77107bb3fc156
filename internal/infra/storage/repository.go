// Package storage defines the repository interfaces for fault records and
// incidents. Implementations live in the memory and postgres subpackages.
package storage

import (
	"context"

	"github.com/vietddude/triage/internal/core/domain"
)

// FaultRepository stores fault records. The in-memory implementation backs
// the orchestrator's working set with a bounded recent-history window; the
// PostgreSQL implementation is the durable persistence sink used by the
// escalation manager.
type FaultRepository interface {
	// Save inserts or replaces a record by ID.
	Save(ctx context.Context, rec *domain.FaultRecord) error

	// Get returns a record by ID, nil when absent.
	Get(ctx context.Context, id string) (*domain.FaultRecord, error)

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.FaultRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// IncidentRepository stores incidents opened for critical escalations.
type IncidentRepository interface {
	// Create stores a new incident.
	Create(ctx context.Context, inc *domain.Incident) error

	// Open returns incidents still in OPEN status, newest first.
	Open(ctx context.Context, limit int) ([]*domain.Incident, error)
}
