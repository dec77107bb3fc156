// Package memory provides the bounded in-memory fault store backing the
// orchestrator's working set. Capacity-bounded: the oldest records are
// evicted once the window fills, keeping a recent-history view for reporting
// while the persistence sink remains the system of record.
package memory

import (
	"context"
	"sync"

	"github.com/vietddude/triage/internal/core/domain"
)

// DefaultCapacity is the recent-history window size.
const DefaultCapacity = 1000

// FaultStore is a capacity-bounded in-memory FaultRepository.
type FaultStore struct {
	mu       sync.RWMutex
	capacity int
	records  map[string]*domain.FaultRecord
	order    []string // insertion order, oldest first
}

// NewFaultStore creates a store with the given capacity; zero or negative
// means DefaultCapacity.
func NewFaultStore(capacity int) *FaultStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &FaultStore{
		capacity: capacity,
		records:  make(map[string]*domain.FaultRecord),
	}
}

// Save inserts or replaces a record, evicting the oldest when full.
func (s *FaultStore) Save(ctx context.Context, rec *domain.FaultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; !exists {
		if len(s.order) >= s.capacity {
			oldest := s.order[0]
			s.order = s.order[1:]
			delete(s.records, oldest)
		}
		s.order = append(s.order, rec.ID)
	}
	s.records[rec.ID] = rec
	return nil
}

// Get returns a record by ID, nil when absent or evicted.
func (s *FaultStore) Get(ctx context.Context, id string) (*domain.FaultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[id], nil
}

// Recent returns up to limit records, newest first.
func (s *FaultStore) Recent(ctx context.Context, limit int) ([]*domain.FaultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.order) {
		limit = len(s.order)
	}

	out := make([]*domain.FaultRecord, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.records[s.order[i]])
	}
	return out, nil
}

// Count returns the number of retained records.
func (s *FaultStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order), nil
}

// IncidentStore is an in-memory IncidentRepository for tests and
// database-less deployments.
type IncidentStore struct {
	mu        sync.RWMutex
	incidents []*domain.Incident
}

// NewIncidentStore creates an empty incident store.
func NewIncidentStore() *IncidentStore {
	return &IncidentStore{}
}

// Create stores a new incident.
func (s *IncidentStore) Create(ctx context.Context, inc *domain.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incidents = append(s.incidents, inc)
	return nil
}

// Open returns open incidents, newest first.
func (s *IncidentStore) Open(ctx context.Context, limit int) ([]*domain.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Incident
	for i := len(s.incidents) - 1; i >= 0; i-- {
		if s.incidents[i].Status == domain.IncidentOpen {
			out = append(out, s.incidents[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}
