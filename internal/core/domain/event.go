package domain

// EventType identifies an engine notification.
type EventType string

const (
	EventFaultResolved   EventType = "fault:resolved"
	EventFaultEscalated  EventType = "fault:escalated"
	EventAlertSent       EventType = "alert:sent"
	EventIncidentCreated EventType = "incident:created"
)

// Event is an emitted engine notification. Fire-and-forget: no return value
// is consumed from observers.
type Event struct {
	Type    EventType      `json:"type"`
	FaultID string         `json:"fault_id,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}
