package team

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const snapshotKey = "casework:teams:snapshot"

// Loader loads the team snapshot from somewhere.
type Loader interface {
	List(ctx context.Context) ([]Team, error)
}

// CachedLoader wraps a Loader with a Redis snapshot so multiple
// instances share team configuration without hitting Postgres on
// every registry rebuild.
type CachedLoader struct {
	inner  Loader
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedLoader creates a cached loader. ttl bounds snapshot staleness.
func NewCachedLoader(inner Loader, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedLoader {
	return &CachedLoader{inner: inner, client: client, ttl: ttl, logger: logger}
}

// List returns the cached snapshot when fresh, falling back to the
// inner loader. Cache failures degrade to the inner loader; they
// never fail the call.
func (c *CachedLoader) List(ctx context.Context) ([]Team, error) {
	if data, err := c.client.Get(ctx, snapshotKey).Bytes(); err == nil {
		var teams []Team
		if err := json.Unmarshal(data, &teams); err == nil {
			return teams, nil
		}
		c.logger.Warn("corrupt team snapshot in cache, reloading")
	}

	teams, err := c.inner.List(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(teams); err == nil {
		if err := c.client.Set(ctx, snapshotKey, data, c.ttl).Err(); err != nil {
			c.logger.Warn("failed to cache team snapshot", zap.Error(err))
		}
	}

	return teams, nil
}

// Invalidate drops the cached snapshot.
func (c *CachedLoader) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, snapshotKey).Err(); err != nil {
		c.logger.Warn("failed to invalidate team snapshot", zap.Error(err))
	}
}
