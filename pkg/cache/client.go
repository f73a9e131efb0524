package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist or already expired.
var ErrNotFound = errors.New("cache: key not found")

type Cache interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	// GetDel atomically reads and removes a key. Single-use values
	// (OAuth state, request token secrets) must go through GetDel so a
	// double-submitted callback cannot observe the same value twice.
	GetDel(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}
