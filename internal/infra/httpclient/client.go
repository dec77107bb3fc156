// Package httpclient provides a resilient HTTP client that retries
// idempotent-safe requests with jittered exponential backoff, honoring
// server-supplied Retry-After hints. It performs no fault classification:
// after exhausting retries the last error is returned unchanged, and callers
// wanting orchestrated recovery route it into the recovery orchestrator.
package httpclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/triage/internal/metrics"
)

// CorrelationHeader carries the request correlation identifier.
const CorrelationHeader = "X-Correlation-ID"

// Config defines the client's retry behavior.
type Config struct {
	// MaxRetries is the number of retries after the first attempt; total
	// attempts is MaxRetries+1.
	MaxRetries int

	// BaseBackoff seeds the exponential backoff between attempts.
	BaseBackoff time.Duration

	// MaxBackoff caps the computed backoff (Retry-After hints may exceed it).
	MaxBackoff time.Duration

	// Timeout is the default per-request timeout.
	Timeout time.Duration
}

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  2,
		BaseBackoff: 250 * time.Millisecond,
		MaxBackoff:  5 * time.Second,
		Timeout:     30 * time.Second,
	}
}

// Request describes one outbound call.
type Request struct {
	Method string
	URL    string
	Body   []byte
	Header http.Header

	// Timeout overrides the client default when positive.
	Timeout time.Duration

	// CorrelationID ties retries and logs together; generated when empty.
	CorrelationID string
}

// Response is the augmented result of a successful request.
type Response struct {
	StatusCode    int
	Header        http.Header
	Body          []byte
	CorrelationID string
	LatencyMS     int64

	// Attempt is the 1-based attempt number that produced this response.
	Attempt int
}

// Client is the resilient request client.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

// New creates a client. Zero config fields fall back to defaults.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: slog.Default().With("component", "httpclient"),
	}
}

// retryableStatus holds the statuses worth retrying: rate limiting and
// transient upstream failures. Everything else is returned to the caller.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

var retryableErrorText = []string{
	"connection reset",
	"no such host",
	"timeout",
	"timed out",
	"temporary failure in name resolution",
}

// Do executes the request with bounded retries. On success it returns the
// response augmented with correlation id, latency, and attempt number. On
// final failure it returns the last encountered error unchanged.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	start := time.Now()
	totalAttempts := c.cfg.MaxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= totalAttempts; attempt++ {
		resp, err := c.once(ctx, req, correlationID)
		if err != nil {
			lastErr = err
			if !retryableError(err) || attempt == totalAttempts {
				return nil, lastErr
			}
			metrics.RequestRetriesTotal.WithLabelValues("error").Inc()
			c.log.Debug("Retrying request after error",
				"correlation_id", correlationID,
				"attempt", attempt,
				"error", err,
			)
			if werr := wait(ctx, c.backoff(attempt, nil)); werr != nil {
				return nil, lastErr
			}
			continue
		}

		if retryableStatus[resp.StatusCode] && attempt < totalAttempts {
			lastErr = &StatusError{StatusCode: resp.StatusCode, CorrelationID: correlationID}
			metrics.RequestRetriesTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
			c.log.Debug("Retrying request after status",
				"correlation_id", correlationID,
				"attempt", attempt,
				"status", resp.StatusCode,
			)
			if werr := wait(ctx, c.backoff(attempt, resp)); werr != nil {
				return nil, lastErr
			}
			continue
		}

		if retryableStatus[resp.StatusCode] {
			// Out of attempts on a retryable status.
			return nil, &StatusError{StatusCode: resp.StatusCode, CorrelationID: correlationID}
		}

		latency := time.Since(start)
		metrics.RequestLatency.WithLabelValues(req.Method).Observe(latency.Seconds())

		return &Response{
			StatusCode:    resp.StatusCode,
			Header:        resp.Header,
			Body:          resp.body,
			CorrelationID: correlationID,
			LatencyMS:     latency.Milliseconds(),
			Attempt:       attempt,
		}, nil
	}

	return nil, lastErr
}

type attemptResponse struct {
	StatusCode int
	Header     http.Header
	body       []byte
}

// once performs a single HTTP round trip, draining the body so the
// connection can be reused across retries.
func (c *Client) once(ctx context.Context, req *Request, correlationID string) (*attemptResponse, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.cfg.Timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set(CorrelationHeader, correlationID)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &attemptResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		body:       data,
	}, nil
}

// backoff computes the delay before the next attempt. A positive numeric
// Retry-After header wins; otherwise min(MaxBackoff, base*2^attempt) plus
// 0-99ms of jitter.
func (c *Client) backoff(attempt int, resp *attemptResponse) time.Duration {
	if resp != nil {
		if after := resp.Header.Get("Retry-After"); after != "" {
			if secs, err := strconv.Atoi(strings.TrimSpace(after)); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}

	delay := c.cfg.BaseBackoff
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= c.cfg.MaxBackoff {
			delay = c.cfg.MaxBackoff
			break
		}
	}
	return delay + time.Duration(rand.Intn(100))*time.Millisecond
}

func retryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		// A per-attempt timeout; the parent context may still be live.
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, text := range retryableErrorText {
		if strings.Contains(msg, text) {
			return true
		}
	}
	return false
}

func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
