package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"stock-watch/src/logger"
	"stock-watch/src/models"
)

const redisOpTimeout = 2 * time.Second

// -----------------------------------------------------------------------------
// RedisFastStore is the shared L1 for multi-instance deployments. Redis
// expires entries itself; every Redis failure degrades to a cache miss so
// the coordinator falls through to the durable store.
// -----------------------------------------------------------------------------

type redisEnvelope struct {
	Payload  []byte `json:"payload"`
	StoredAt int64  `json:"stored_at"`
}

type RedisFastStore struct {
	client *redis.Client
	log    *logger.Logger
}

// -----------------------------------------------------------------------------

func NewRedisFastStore(cfg *models.MConfig, log *logger.Logger) *RedisFastStore {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.FastStore.RedisAddr,
		DB:   cfg.FastStore.RedisDB,
	})
	return &RedisFastStore{client: client, log: log}
}

// -----------------------------------------------------------------------------

func (r *RedisFastStore) Get(key string) ([]byte, time.Time, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, time.Time{}, false
	}
	if err != nil {
		r.log.Warning("Redis get error for %s: %v", key, err)
		return nil, time.Time{}, false
	}

	var env redisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.log.Warning("Redis payload corrupt for %s: %v", key, err)
		return nil, time.Time{}, false
	}

	return env.Payload, time.Unix(env.StoredAt, 0), true
}

// -----------------------------------------------------------------------------

func (r *RedisFastStore) Put(key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	raw, err := json.Marshal(redisEnvelope{
		Payload:  payload,
		StoredAt: time.Now().Unix(),
	})
	if err != nil {
		r.log.Warning("Redis marshal error for %s: %v", key, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		r.log.Warning("Redis set error for %s: %v", key, err)
	}
}

// -----------------------------------------------------------------------------

func (r *RedisFastStore) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

// -----------------------------------------------------------------------------

func (r *RedisFastStore) Close() error {
	return r.client.Close()
}
