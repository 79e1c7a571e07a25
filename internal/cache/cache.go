// cache — защита от повторной доставки уведомлений на базе Redis.
package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DeliveryGuard — минимальный контракт дедупликации доставок.
// Ключ — пара (событие, получатель).
type DeliveryGuard interface {
	// Claim атомарно занимает ключ на ttl. false — доставка уже выполнялась (или выполняется).
	Claim(ctx context.Context, eventID string, recipient uuid.UUID) (bool, error)
	// Release освобождает ключ после неудачной доставки, чтобы повтор мог её выполнить.
	Release(ctx context.Context, eventID string, recipient uuid.UUID) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisGuard struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisGuard создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "discussions:delivered:".
func NewRedisGuard(redisURL, prefix string, ttl time.Duration) (DeliveryGuard, error) {
	if prefix == "" {
		prefix = "discussions:delivered:"
	}

	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return &redisGuard{rdb: rdb, prefix: prefix, ttl: ttl}, nil
}

func (g *redisGuard) key(eventID string, recipient uuid.UUID) string {
	return g.prefix + eventID + ":" + recipient.String()
}

func (g *redisGuard) Claim(ctx context.Context, eventID string, recipient uuid.UUID) (bool, error) {
	return g.rdb.SetNX(ctx, g.key(eventID, recipient), 1, g.ttl).Result()
}

func (g *redisGuard) Release(ctx context.Context, eventID string, recipient uuid.UUID) error {
	return g.rdb.Del(ctx, g.key(eventID, recipient)).Err()
}

func (g *redisGuard) Close() error { return g.rdb.Close() }

// NopGuard пропускает все доставки (Redis не настроен).
type NopGuard struct{}

func (NopGuard) Claim(context.Context, string, uuid.UUID) (bool, error) { return true, nil }
func (NopGuard) Release(context.Context, string, uuid.UUID) error       { return nil }
func (NopGuard) Close() error                                           { return nil }
