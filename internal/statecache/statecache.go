// Package statecache publishes driver state snapshots to Redis for
// external observability. It never participates in the state machine: the
// driver does not import this package, and nothing here can influence a
// driver's behavior.
package statecache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/orchestron-orchestrator/netcli/internal/config"
	"github.com/orchestron-orchestrator/netcli/pkg/logger"
)

// Snapshot is what gets published for one device on every transition.
type Snapshot struct {
	DeviceKind string    `json:"device_kind"`
	Host       string    `json:"host"`
	State      string    `json:"state"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Publisher pushes Snapshot values keyed by host. Implementations must
// never block the caller for long — the client facade calls Publish from
// inside a driver's completion/transition callback.
type Publisher interface {
	Publish(ctx context.Context, snap Snapshot) error
	Close() error
}

// New builds a Redis-backed Publisher, or a noopPublisher if cfg.Host is
// empty (SPEC_FULL.md §6.6: Redis is optional).
func New(cfg config.RedisConfig) (Publisher, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return noopPublisher{}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis state cache initialized successfully")
	return &redisPublisher{client: rdb, ttl: cfg.TTL}, nil
}

type redisPublisher struct {
	client *redis.Client
	ttl    time.Duration
}

func (p *redisPublisher) Publish(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	key := "netcli:state:" + snap.Host
	return p.client.Set(ctx, key, data, p.ttl).Err()
}

func (p *redisPublisher) Close() error { return p.client.Close() }

// noopPublisher is used when Redis is not configured.
type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, snap Snapshot) error { return nil }
func (noopPublisher) Close() error                                     { return nil }
