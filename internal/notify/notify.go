// Package notify defines the user-notification sink.
//
// The original screens surfaced every terminal outcome through a popup; here
// the sink is an injected interface so the engine and the action machine never
// reach for a global. Publishing is best-effort — callers log and continue on
// failure.
package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Kind classifies a notification for the client UI.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// Message is one user-visible notification.
type Message struct {
	Text string `json:"message"`
	Kind Kind   `json:"kind"`
	// UserID scopes the notification; empty means broadcast.
	UserID string `json:"userId,omitempty"`
}

// Sink receives every terminal outcome of an action and every normalizer
// drop event.
type Sink interface {
	Publish(ctx context.Context, msg Message) error
}

// ─── Log sink ────────────────────────────────────────────────────────────────

// LogSink writes notifications to the process log. Used as the default sink
// and as the fallback when no Redis is configured.
type LogSink struct{}

func (LogSink) Publish(_ context.Context, msg Message) error {
	log.Printf("[notify] %s: %s", msg.Kind, msg.Text)
	return nil
}

// ─── Redis sink ──────────────────────────────────────────────────────────────

// NotificationChannel is the pub/sub channel the gateway subscribes to for
// SSE forwarding.
const NotificationChannel = "EVENT_NOTIFICATION"

// RedisSink publishes notifications to a Redis pub/sub channel as JSON.
type RedisSink struct {
	rdb *redis.Client
}

// NewRedisSink returns a sink backed by the given Redis client.
func NewRedisSink(rdb *redis.Client) *RedisSink {
	return &RedisSink{rdb: rdb}
}

func (s *RedisSink) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, NotificationChannel, payload).Err()
}
