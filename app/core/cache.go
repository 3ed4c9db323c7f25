package core

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/insightpilot/insightpilot/app/store"
	"github.com/insightpilot/insightpilot/pkg/types"
	"github.com/insightpilot/insightpilot/pkg/types/protocol"
)

func newRedisClient(cfg RedisConfig) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = time.Duration(cfg.DialTimeout) * time.Second
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = time.Duration(cfg.ReadTimeout) * time.Second
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = time.Duration(cfg.WriteTimeout) * time.Second
	}
	return redis.NewClient(opts)
}

type redisCache struct {
	client *redis.Client
}

var _ types.Cache = (*redisCache)(nil)

// Get treats a missing key as an empty value, not an error.
func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (c *redisCache) SetEx(ctx context.Context, key, value string, expiresAt time.Duration) error {
	return c.client.SetEx(ctx, key, value, expiresAt).Err()
}

func (c *redisCache) SetNX(ctx context.Context, key, value string, expiresAt time.Duration) (bool, error) {
	return c.client.SetNX(ctx, key, value, expiresAt).Result()
}

func (c *redisCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *redisCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return c.client.Expire(ctx, key, expiration).Err()
}

// TryLock takes a best-effort distributed lock. The bool reports whether
// this caller now holds it.
func (s *Core) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.cache.SetNX(ctx, key, "1", ttl)
}

func (s *Core) ReleaseLock(ctx context.Context, key string) error {
	return s.cache.Del(ctx, key)
}

const seqKeyTTL = time.Hour * 24

// seqGen allocates message sequence numbers with redis INCR. Cold keys
// are seeded from the message log so sequences survive cache loss.
type seqGen struct {
	rdb      *redis.Client
	msgStore store.MessageStore
}

func (s *seqGen) GetMessageSequence(ctx context.Context, sessionID string) (int64, error) {
	key := protocol.GenSessionSeqKey(sessionID)

	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		var base int64
		latest, err := s.msgStore.GetSessionLatestMessage(ctx, sessionID)
		if err != nil && err != sql.ErrNoRows {
			return 0, err
		}
		if latest != nil {
			base = latest.Sequence
		}
		s.rdb.SetNX(ctx, key, base, seqKeyTTL)
	}

	seq, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	s.rdb.Expire(ctx, key, seqKeyTTL)
	return seq, nil
}
