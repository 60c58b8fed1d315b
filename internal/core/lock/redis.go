package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultRedisTTL = 30 * time.Second

// unlockScript deletes the key only when it still holds the caller's token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRegistry shares named locks between processes through Redis.
// Held locks expire after ttl so a crashed holder cannot wedge the name.
type RedisRegistry struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Registry = (*RedisRegistry)(nil)

// NewRedisRegistry connects to redisURL and verifies the connection.
func NewRedisRegistry(redisURL string, ttl time.Duration) (*RedisRegistry, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisRegistryWithClient(client, ttl), nil
}

// NewRedisRegistryWithClient creates a registry from an existing client.
func NewRedisRegistryWithClient(client *redis.Client, ttl time.Duration) *RedisRegistry {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	return &RedisRegistry{
		client: client,
		prefix: "lock:",
		ttl:    ttl,
	}
}

// Register returns the mutex stored under name.
func (r *RedisRegistry) Register(name string) Mutex {
	return &redisMutex{registry: r, name: name}
}

// Close closes the Redis connection.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

type redisMutex struct {
	registry *RedisRegistry
	name     string
}

func (m *redisMutex) Name() string { return m.name }

func (m *redisMutex) key() string { return m.registry.prefix + m.name }

func (m *redisMutex) TryLock(ctx context.Context) (Ticket, error) {
	token := uuid.NewString()

	ok, err := m.registry.client.SetNX(ctx, m.key(), token, m.registry.ttl).Result()
	if err != nil {
		return Ticket{}, fmt.Errorf("acquire lock %q: %w", m.name, err)
	}
	if !ok {
		return Ticket{}, ErrLocked
	}
	return Ticket{Name: m.name, Token: token}, nil
}

func (m *redisMutex) Unlock(ctx context.Context, ticket Ticket) error {
	if ticket.Name != m.name || ticket.Token == "" {
		return ErrTicketMismatch
	}

	deleted, err := unlockScript.Run(ctx, m.registry.client, []string{m.key()}, ticket.Token).Int()
	if err != nil {
		return fmt.Errorf("release lock %q: %w", m.name, err)
	}
	if deleted == 0 {
		return ErrTicketMismatch
	}
	return nil
}
