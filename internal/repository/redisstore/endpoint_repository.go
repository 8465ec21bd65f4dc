package redisstore

import (
	"context"
	"errors"
	"fmt"

	"ai-chat-router-be/pkg/ai/classifier"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "chat:endpoint:"

// EndpointRepository shares endpoint locks between gateway instances.
// Keys carry no TTL, matching the in-memory store.
type EndpointRepository struct {
	rdb *redis.Client
}

func NewEndpointRepository(rdb *redis.Client) *EndpointRepository {
	return &EndpointRepository{rdb: rdb}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

func (r *EndpointRepository) Get(ctx context.Context, sessionID string) (classifier.Category, bool, error) {
	val, err := r.rdb.Get(ctx, key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get endpoint: %w", err)
	}
	category, ok := classifier.ParseCategory(val)
	if !ok {
		return "", false, fmt.Errorf("invalid endpoint %q stored for session %s", val, sessionID)
	}
	return category, true, nil
}

// SetIfAbsent uses SETNX so concurrent first messages converge on one value
func (r *EndpointRepository) SetIfAbsent(ctx context.Context, sessionID string, category classifier.Category) (classifier.Category, bool, error) {
	ok, err := r.rdb.SetNX(ctx, key(sessionID), string(category), 0).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis setnx endpoint: %w", err)
	}
	if ok {
		return category, true, nil
	}

	stored, found, err := r.Get(ctx, sessionID)
	if err != nil {
		return "", false, err
	}
	if !found {
		return category, false, fmt.Errorf("endpoint for session %s vanished after setnx", sessionID)
	}
	return stored, false, nil
}

func (r *EndpointRepository) Set(ctx context.Context, sessionID string, category classifier.Category) error {
	if err := r.rdb.Set(ctx, key(sessionID), string(category), 0).Err(); err != nil {
		return fmt.Errorf("redis set endpoint: %w", err)
	}
	return nil
}

func (r *EndpointRepository) Clear(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del endpoint: %w", err)
	}
	return nil
}
