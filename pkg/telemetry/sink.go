// Package telemetry is the optional, best-effort session-lifecycle event
// sink from SPEC_FULL.md §3: publishing the events a Session emits
// ("connected" and "closed") over Redis pub/sub the way the teacher's
// pkg/redis published scooter-state changes, without ever sitting on the
// session's hot path.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/litra-tech/ldcp-go/pkg/config"
)

// Sink publishes session lifecycle events to Redis, guarded by a circuit
// breaker and a rate limiter so a struggling broker degrades to a no-op
// instead of blocking the caller.
type Sink struct {
	client  *redis.Client
	ctx     context.Context
	channel string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// event is the document published on the telemetry channel.
type event struct {
	ID     string                 `json:"id"`
	Name   string                 `json:"name"`
	Fields map[string]interface{} `json:"fields,omitempty"`
}

// New connects a Sink to cfg's Redis address. An empty cfg.Address
// produces (nil, nil): a nil *Sink is always safe to use, since every
// method on it treats a nil receiver as "telemetry disabled" rather than
// panicking, matching how Session treats a nil EventSink.
func New(cfg config.TelemetryConfig) (*Sink, error) {
	if cfg.Address == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("telemetry: connect to %s: %w", cfg.Address, err)
	}

	limit := cfg.RateLimitPerSec
	if limit <= 0 {
		limit = 20
	}

	settings := gobreaker.Settings{
		Name:        "telemetry-publish",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}

	return &Sink{
		client:  client,
		ctx:     ctx,
		channel: cfg.Channel,
		limiter: rate.NewLimiter(rate.Limit(limit), int(limit)+1),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}, nil
}

// SessionEvent implements session.EventSink. A nil Sink, a tripped
// breaker, or a rate-limited burst all result in the event being silently
// dropped, never an error surfaced to the session.
func (s *Sink) SessionEvent(name string, fields map[string]interface{}) {
	if s == nil {
		return
	}
	if !s.limiter.Allow() {
		return
	}

	ev := event{ID: uuid.NewString(), Name: name, Fields: fields}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("telemetry: marshal event %s: %v", name, err)
		return
	}

	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.client.Publish(s.ctx, s.channel, payload).Err()
	})
	if err != nil {
		log.Printf("telemetry: publish event %s: %v", name, err)
	}
}

// Close releases the underlying Redis connection. Safe to call on a nil
// Sink.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}
