package domain

import (
	"time"
)

// FaultKind is the classifier's output category.
type FaultKind int

const (
	DatabaseConnectionError FaultKind = iota
	RateLimitError
	AuthError
	TimeoutError
	DependentServiceError
	NetworkError
	GenericError

	// KindCount is the number of fault kinds; the strategy registry is a
	// fixed-size table indexed by FaultKind.
	KindCount
)

var kindNames = [KindCount]string{
	"DATABASE_CONNECTION_ERROR",
	"RATE_LIMIT_ERROR",
	"AUTH_ERROR",
	"TIMEOUT_ERROR",
	"DEPENDENT_SERVICE_ERROR",
	"NETWORK_ERROR",
	"GENERIC_ERROR",
}

func (k FaultKind) String() string {
	if k < 0 || k >= KindCount {
		return "GENERIC_ERROR"
	}
	return kindNames[k]
}

// Structured fault codes. String sentinels rather than numeric so both
// HTTP-style and syscall-style codes fit in one field.
const (
	CodeRateLimited    = "429"
	CodeUnauthorized   = "401"
	CodeRequestTimeout = "408"
	CodeConnRefused    = "ECONNREFUSED"
	CodeConnReset      = "ECONNRESET"
	CodeHostUnreach    = "EHOSTUNREACH"
	CodeHostNotFound   = "ENOTFOUND"
	CodeTimedOut       = "ETIMEDOUT"
	CodeDNSFailure     = "EAI_AGAIN"
)

// Fault is a raised error condition entering the engine.
type Fault struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Stack   string `json:"stack,omitempty"`

	// Err is the underlying Go error, when the fault originated from one.
	// The classifier inspects it for gRPC status codes.
	Err error `json:"-"`
}

// FaultFromError builds a Fault from a plain error.
func FaultFromError(err error) Fault {
	if err == nil {
		return Fault{}
	}
	return Fault{Message: err.Error(), Err: err}
}

// RecoveryAttempt records one strategy invocation inside the retry loop.
type RecoveryAttempt struct {
	Number    int       `json:"number"`
	Timestamp time.Time `json:"timestamp"`
	Strategy  string    `json:"strategy"`
	Success   bool      `json:"success"`
	Detail    string    `json:"detail,omitempty"`
}

// RecordState is the derived lifecycle state of a FaultRecord.
type RecordState string

const (
	RecordStateOpen       RecordState = "open"
	RecordStateInProgress RecordState = "in_progress"
	RecordStateResolved   RecordState = "resolved"
	RecordStateEscalated  RecordState = "escalated"
)

// FaultRecord is the per-fault unit of work. It is mutated only by the
// orchestrator (attempts, resolved) and the escalation manager (escalated),
// never concurrently: one fault produces exactly one orchestration run.
type FaultRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Fault     Fault     `json:"fault"`
	Kind      FaultKind `json:"kind"`
	Context   Context   `json:"context,omitempty"`

	Attempts   []RecoveryAttempt `json:"attempts"`
	Resolved   bool              `json:"resolved"`
	Resolution any               `json:"resolution,omitempty"`

	Escalated   bool       `json:"escalated"`
	EscalatedAt *time.Time `json:"escalated_at,omitempty"`
}

// State derives the record's lifecycle state. Resolved and escalated are
// mutually exclusive terminal states.
func (r *FaultRecord) State() RecordState {
	switch {
	case r.Resolved:
		return RecordStateResolved
	case r.Escalated:
		return RecordStateEscalated
	case len(r.Attempts) > 0:
		return RecordStateInProgress
	default:
		return RecordStateOpen
	}
}

// Summary is the compact form used in health reports and alert payloads.
type Summary struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Attempts  int       `json:"attempts"`
	State     string    `json:"state"`
}

// Summarize produces the compact report form of the record.
func (r *FaultRecord) Summarize() Summary {
	return Summary{
		ID:        r.ID,
		Timestamp: r.Timestamp,
		Kind:      r.Kind.String(),
		Message:   r.Fault.Message,
		Attempts:  len(r.Attempts),
		State:     string(r.State()),
	}
}
