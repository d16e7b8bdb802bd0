// Package notify publishes maintenance notifications for downstream
// subscribers (email, chat, status page widgets). Delivery is fire-and-forget:
// a published message is not acknowledged and is lost if nobody is listening.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pkordes/status-page/internal/domain"
)

// MessageTypeMaintenance tags messages produced by NotifyMaintenance.
const MessageTypeMaintenance = "maintenance"

// Notifier sends a notification about a saved maintenance.
type Notifier interface {
	NotifyMaintenance(ctx context.Context, rec domain.MaintenanceRecord) error
}

// Message is the JSON envelope published on the channel.
type Message struct {
	Type        string                   `json:"type"`
	Maintenance domain.MaintenanceRecord `json:"maintenance"`
	SentAt      string                   `json:"sentAt"`
}

// RedisNotifier publishes notifications on a Redis pub/sub channel.
type RedisNotifier struct {
	rdb     *goredis.Client
	channel string
}

// NewRedisNotifier connects to the Redis server at addr and verifies it is
// reachable before returning.
func NewRedisNotifier(ctx context.Context, addr, channel string) (*RedisNotifier, error) {
	if addr == "" {
		return nil, fmt.Errorf("notify.NewRedisNotifier: missing redis address")
	}
	if channel == "" {
		return nil, fmt.Errorf("notify.NewRedisNotifier: missing channel")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("notify.NewRedisNotifier: ping: %w", err)
	}

	return &RedisNotifier{rdb: rdb, channel: channel}, nil
}

// NotifyMaintenance publishes rec wrapped in a Message.
func (n *RedisNotifier) NotifyMaintenance(ctx context.Context, rec domain.MaintenanceRecord) error {
	raw, err := encode(MessageTypeMaintenance, rec)
	if err != nil {
		return fmt.Errorf("notify.RedisNotifier.NotifyMaintenance: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, raw).Err(); err != nil {
		return fmt.Errorf("notify.RedisNotifier.NotifyMaintenance: publish: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (n *RedisNotifier) Close() error {
	return n.rdb.Close()
}

// Discard is a Notifier that drops every notification. It is used when no
// Redis server is configured.
type Discard struct{}

func (Discard) NotifyMaintenance(context.Context, domain.MaintenanceRecord) error { return nil }

func encode(typ string, rec domain.MaintenanceRecord) ([]byte, error) {
	return json.Marshal(Message{Type: typ, Maintenance: rec, SentAt: domain.Now()})
}
