package memory

import (
	"time"

	"ai-chat-router-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository creates a cache whose entries expire after ttl of
// inactivity, purging expired items every 10 minutes
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

// stateKey scopes state to its owner: two users on one session id never share it
func stateKey(userID, sessionID string) string {
	return userID + "|" + sessionID
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(stateKey(session.UserID, session.ID), session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(userID, sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(stateKey(userID, sessionID)); found {
		return x.(*store.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(userID, sessionID string) {
	r.cache.Delete(stateKey(userID, sessionID))
}
