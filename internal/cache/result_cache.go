package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eduwang/tmssr-250809/internal/model"
)

// ResultCache holds the bulk-loaded response snapshot between admin renders.
// The snapshot is read-mostly for a session: filter changes reuse it, and
// callers must Invalidate after any create or delete so the next render does
// not serve stale results.
type ResultCache interface {
	GetSnapshot(ctx context.Context) ([]model.Response, bool, error)
	SetSnapshot(ctx context.Context, responses []model.Response) error
	Invalidate(ctx context.Context) error
}

type resultCache struct {
	client *redis.Client
	ttl    time.Duration
}

const snapshotKey = "results:snapshot"

// NewResultCache creates a new result cache
func NewResultCache(client *redis.Client) ResultCache {
	return &resultCache{
		client: client,
		ttl:    10 * time.Minute,
	}
}

func (c *resultCache) GetSnapshot(ctx context.Context) ([]model.Response, bool, error) {
	data, err := c.client.Get(ctx, snapshotKey).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var responses []model.Response
	if err := json.Unmarshal([]byte(data), &responses); err != nil {
		return nil, false, err
	}
	return responses, true, nil
}

func (c *resultCache) SetSnapshot(ctx context.Context, responses []model.Response) error {
	data, err := json.Marshal(responses)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey, data, c.ttl).Err()
}

func (c *resultCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, snapshotKey).Err()
}
