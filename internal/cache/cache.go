package cache

import (
	"context"
	"time"
)

// ProjectionCache holds read-only projections (balance totals, stock levels,
// loan summary). The service invalidates the full key set after every
// successful mutation, so a hit is never older than the last write.
type ProjectionCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

type NoopProjectionCache struct{}

func (NoopProjectionCache) Get(_ context.Context, _ string, _ any) (bool, error) {
	return false, nil
}

func (NoopProjectionCache) Set(_ context.Context, _ string, _ any, _ time.Duration) error {
	return nil
}

func (NoopProjectionCache) Invalidate(_ context.Context, _ ...string) error {
	return nil
}
