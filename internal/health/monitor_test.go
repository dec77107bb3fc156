package health

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/triage/internal/core/domain"
	"github.com/vietddude/triage/internal/infra/storage/memory"
	"github.com/vietddude/triage/internal/metrics"
)

type stubStrategies struct {
	kinds []string
}

func (s *stubStrategies) Registered() []string { return s.kinds }

func TestMonitor_Report(t *testing.T) {
	agg := metrics.NewAggregate()
	store := memory.NewFaultStore(100)
	monitor := NewMonitor(agg, store, &stubStrategies{kinds: []string{"AUTH_ERROR"}})

	for i := 0; i < 12; i++ {
		_ = store.Save(context.Background(), &domain.FaultRecord{
			ID:        string(rune('a' + i)),
			Timestamp: time.Now(),
			Fault:     domain.Fault{Message: "fault"},
			Resolved:  true,
		})
	}

	agg.RecordFault()
	agg.RecordFault()
	agg.RecordRecovery(100 * time.Millisecond)
	agg.RecordEscalation()

	report := monitor.Check(context.Background())

	if report.TotalFaults != 2 || report.Recoveries != 1 || report.Escalations != 1 {
		t.Errorf("unexpected counters %+v", report)
	}
	if report.RecoveryRatePercent != 50 {
		t.Errorf("expected 50%% recovery rate, got %v", report.RecoveryRatePercent)
	}
	if report.AvgRecoveryTimeMS != 100 {
		t.Errorf("expected 100ms average, got %v", report.AvgRecoveryTimeMS)
	}
	if len(report.RecentFaults) != 10 {
		t.Errorf("expected last-10 window, got %d", len(report.RecentFaults))
	}
	if len(report.RegisteredStrategies) != 1 {
		t.Errorf("expected registered strategies in report, got %v", report.RegisteredStrategies)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		total, recoveries, escalations int64
		expect                         SystemStatus
	}{
		{0, 0, 0, StatusHealthy},
		{5, 5, 0, StatusHealthy},
		{5, 3, 2, StatusDegraded},
		{20, 5, 15, StatusCritical},
		{5, 1, 4, StatusDegraded}, // small sample stays degraded
	}

	for _, tt := range tests {
		if got := statusFor(tt.total, tt.recoveries, tt.escalations); got != tt.expect {
			t.Errorf("statusFor(%d,%d,%d) = %s, want %s",
				tt.total, tt.recoveries, tt.escalations, got, tt.expect)
		}
	}
}

func TestServer_HealthEndpoints(t *testing.T) {
	agg := metrics.NewAggregate()
	store := memory.NewFaultStore(10)
	monitor := NewMonitor(agg, store, &stubStrategies{})
	server := NewServer(monitor, 0)

	rr := httptest.NewRecorder()
	server.handleHealth(rr, httptest.NewRequest("GET", "/health", nil))
	if rr.Code != 200 {
		t.Errorf("expected 200 for healthy engine, got %d", rr.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["status"] != string(StatusHealthy) {
		t.Errorf("expected healthy, got %s", body["status"])
	}

	rr = httptest.NewRecorder()
	server.handleDetailed(rr, httptest.NewRequest("GET", "/health/detailed", nil))
	var report Report
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid detailed report: %v", err)
	}
	if report.Status != StatusHealthy {
		t.Errorf("expected healthy report, got %s", report.Status)
	}
}

func TestServer_CriticalReturns503(t *testing.T) {
	agg := metrics.NewAggregate()
	for i := 0; i < 10; i++ {
		agg.RecordFault()
		agg.RecordEscalation()
	}
	monitor := NewMonitor(agg, memory.NewFaultStore(10), &stubStrategies{})
	server := NewServer(monitor, 0)

	rr := httptest.NewRecorder()
	server.handleHealth(rr, httptest.NewRequest("GET", "/health", nil))
	if rr.Code != 503 {
		t.Errorf("expected 503 for critical engine, got %d", rr.Code)
	}
}
