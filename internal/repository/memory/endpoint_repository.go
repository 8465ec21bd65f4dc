package memory

import (
	"context"

	"ai-chat-router-be/pkg/ai/classifier"

	"github.com/patrickmn/go-cache"
)

// EndpointRepository holds the session -> endpoint category locks.
// Entries never expire; they go away only through Clear.
type EndpointRepository struct {
	cache *cache.Cache
}

func NewEndpointRepository() *EndpointRepository {
	return &EndpointRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *EndpointRepository) Get(_ context.Context, sessionID string) (classifier.Category, bool, error) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(classifier.Category), true, nil
	}
	return "", false, nil
}

// SetIfAbsent relies on cache.Add, which fails when the key exists, so the
// first writer wins even when two requests race on a new session.
func (r *EndpointRepository) SetIfAbsent(_ context.Context, sessionID string, category classifier.Category) (classifier.Category, bool, error) {
	if err := r.cache.Add(sessionID, category, cache.NoExpiration); err == nil {
		return category, true, nil
	}
	if x, found := r.cache.Get(sessionID); found {
		return x.(classifier.Category), false, nil
	}
	// Cleared between Add and Get
	r.cache.Set(sessionID, category, cache.NoExpiration)
	return category, true, nil
}

func (r *EndpointRepository) Set(_ context.Context, sessionID string, category classifier.Category) error {
	r.cache.Set(sessionID, category, cache.NoExpiration)
	return nil
}

func (r *EndpointRepository) Clear(_ context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}

// Count returns the number of locked sessions
func (r *EndpointRepository) Count() int {
	return r.cache.ItemCount()
}
