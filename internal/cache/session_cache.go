package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eduwang/tmssr-250809/internal/model"
)

// SessionCache records issued login sessions for the lifetime of their
// token. The JWT remains the source of truth for authentication; this is
// visibility only.
type SessionCache interface {
	Set(ctx context.Context, session *model.LoginSession) error
	Get(ctx context.Context, id string) (*model.LoginSession, error)
	Delete(ctx context.Context, id string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    24 * time.Hour, // matches token expiry
	}
}

func (c *sessionCache) Set(ctx context.Context, session *model.LoginSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "session:"+session.ID, data, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.LoginSession, error) {
	data, err := c.client.Get(ctx, "session:"+id).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.LoginSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, "session:"+id).Err()
}
