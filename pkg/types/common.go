package types

import (
	"context"
	"time"
)

const (
	NO_PAGINATION = 0
)

const (
	LANGUAGE_EN_KEY = "en"
	LANGUAGE_CN_KEY = "zh-CN"
)

// Cache is the subset of redis the logic layer depends on. Keeping it an
// interface lets tests swap in a map-backed fake.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, expiresAt time.Duration) error
	// SetNX reports whether the key was absent and has now been set.
	SetNX(ctx context.Context, key, value string, expiresAt time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, expiration time.Duration) error
}
