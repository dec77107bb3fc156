package httpclient

import "fmt"

// StatusError is returned when retries are exhausted on a retryable HTTP
// status.
type StatusError struct {
	StatusCode    int
	CorrelationID string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d after retries (correlation_id=%s)", e.StatusCode, e.CorrelationID)
}
