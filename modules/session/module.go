package session

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisAddr  = "localhost:6379"
	defaultSessionTTL = 24 * time.Hour
	keyPrefix         = "session:"
)

// Module owns the Redis connection and the token store built on it.
type Module struct {
	client    *redis.Client
	store     *TokenStore
	redisAddr string
	ttl       time.Duration
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new session module. The Redis address comes from
// REDIS_ADDR and the session lifetime from SESSION_TTL (a Go duration
// string such as "24h").
func NewModule() *Module {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = defaultRedisAddr
	}

	ttl := defaultSessionTTL
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			ttl = parsed
		} else {
			log.Printf("[session] Invalid SESSION_TTL %q, using default: %v", v, err)
		}
	}

	return &Module{
		redisAddr: redisAddr,
		ttl:       ttl,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "session"
}

// Start connects to Redis and builds the token store.
func (m *Module) Start(ctx context.Context) error {
	log.Printf("[session] Connecting to Redis: %s", m.redisAddr)

	m.client = redis.NewClient(&redis.Options{
		Addr: m.redisAddr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := m.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	store, err := NewTokenStore(m.client, keyPrefix, m.ttl)
	if err != nil {
		return err
	}
	m.store = store

	log.Println("[session] Module started")
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.client == nil {
		return nil
	}
	log.Println("[session] Closing Redis connection...")
	return m.client.Close()
}

// Health pings Redis.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.client == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "redis not initialized",
		}
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"addr": m.redisAddr,
		},
	}
}

// Store returns the token store.
func (m *Module) Store() *TokenStore {
	return m.store
}
