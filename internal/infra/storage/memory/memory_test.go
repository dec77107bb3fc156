package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/vietddude/triage/internal/core/domain"
)

func rec(id string) *domain.FaultRecord {
	return &domain.FaultRecord{
		ID:        id,
		Timestamp: time.Now(),
		Fault:     domain.Fault{Message: "fault " + id},
	}
}

func TestFaultStore_SaveAndGet(t *testing.T) {
	s := NewFaultStore(10)
	ctx := context.Background()

	if err := s.Save(ctx, rec("a")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := s.Get(ctx, "a")
	if err != nil || got == nil {
		t.Fatalf("expected record, got %v (err %v)", got, err)
	}

	if missing, _ := s.Get(ctx, "nope"); missing != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestFaultStore_EvictsOldest(t *testing.T) {
	s := NewFaultStore(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = s.Save(ctx, rec(fmt.Sprintf("f-%d", i)))
	}

	if count, _ := s.Count(ctx); count != 3 {
		t.Errorf("expected capacity-bounded count 3, got %d", count)
	}

	// Oldest two evicted, newest three retained.
	for _, id := range []string{"f-0", "f-1"} {
		if got, _ := s.Get(ctx, id); got != nil {
			t.Errorf("expected %s evicted", id)
		}
	}
	for _, id := range []string{"f-2", "f-3", "f-4"} {
		if got, _ := s.Get(ctx, id); got == nil {
			t.Errorf("expected %s retained", id)
		}
	}
}

func TestFaultStore_ResaveDoesNotEvict(t *testing.T) {
	s := NewFaultStore(2)
	ctx := context.Background()

	_ = s.Save(ctx, rec("a"))
	_ = s.Save(ctx, rec("b"))
	_ = s.Save(ctx, rec("a")) // update, not insert

	if count, _ := s.Count(ctx); count != 2 {
		t.Errorf("expected count 2 after resave, got %d", count)
	}
	if got, _ := s.Get(ctx, "b"); got == nil {
		t.Error("resave of existing id must not evict others")
	}
}

func TestFaultStore_RecentNewestFirst(t *testing.T) {
	s := NewFaultStore(10)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = s.Save(ctx, rec(fmt.Sprintf("f-%d", i)))
	}

	recent, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recent))
	}
	if recent[0].ID != "f-4" || recent[2].ID != "f-2" {
		t.Errorf("expected newest first, got %s..%s", recent[0].ID, recent[2].ID)
	}

	all, _ := s.Recent(ctx, 0)
	if len(all) != 5 {
		t.Errorf("limit 0 should return everything, got %d", len(all))
	}
}

func TestIncidentStore_OpenFilter(t *testing.T) {
	s := NewIncidentStore()
	ctx := context.Background()

	_ = s.Create(ctx, &domain.Incident{ID: "i-1", Status: domain.IncidentOpen})
	_ = s.Create(ctx, &domain.Incident{ID: "i-2", Status: domain.IncidentResolved})
	_ = s.Create(ctx, &domain.Incident{ID: "i-3", Status: domain.IncidentOpen})

	open, err := s.Open(ctx, 10)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("expected 2 open incidents, got %d", len(open))
	}
	if open[0].ID != "i-3" {
		t.Errorf("expected newest first, got %s", open[0].ID)
	}
}
