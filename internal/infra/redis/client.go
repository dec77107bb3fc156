// Package redis implements the engine's observer channel and alert queue on
// top of Redis: events go out over pub/sub, alerts land on a list consumed
// by the embedding application's alerting workers.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/triage/internal/core/domain"
)

const (
	// EventChannel is the pub/sub channel engine notifications go out on.
	EventChannel = "triage:events"

	// AlertQueue is the list alert payloads are pushed to.
	AlertQueue = "triage:alerts"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// Client wraps Redis operations for notifications and alert dispatch.
type Client struct {
	rdb *redis.Client
	log *slog.Logger
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{
		rdb: rdb,
		log: slog.Default().With("component", "redis"),
	}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Notify publishes an engine event. Fire-and-forget: publish failures are
// logged, never returned.
func (c *Client) Notify(ctx context.Context, event domain.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		c.log.Warn("Failed to marshal event", "type", event.Type, "error", err)
		return
	}
	if err := c.rdb.Publish(ctx, EventChannel, payload).Err(); err != nil {
		c.log.Warn("Failed to publish event", "type", event.Type, "error", err)
	}
}

// SendAlert pushes an alert payload onto the alert queue.
func (c *Client) SendAlert(ctx context.Context, alert domain.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	if err := c.rdb.LPush(ctx, AlertQueue, payload).Err(); err != nil {
		return fmt.Errorf("lpush failed: %w", err)
	}
	return nil
}

// PendingAlerts returns the number of undelivered alerts on the queue.
func (c *Client) PendingAlerts(ctx context.Context) (int64, error) {
	return c.rdb.LLen(ctx, AlertQueue).Result()
}
