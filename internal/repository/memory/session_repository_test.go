package memory

import (
	"testing"
	"time"

	"ai-chat-router-be/pkg/ai/classifier"
	"ai-chat-router-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_SaveGetDelete(t *testing.T) {
	repo := NewSessionRepository(time.Hour)

	_, found := repo.Get("u1", "s1")
	assert.False(t, found)

	repo.Save(&store.Session{ID: "s1", UserID: "u1", Category: classifier.Education, UpstreamChatID: "up-1", Turns: 1})

	got, found := repo.Get("u1", "s1")
	require.True(t, found)
	assert.Equal(t, "up-1", got.UpstreamChatID)
	assert.False(t, got.IsNew())

	repo.Delete("u1", "s1")
	_, found = repo.Get("u1", "s1")
	assert.False(t, found)
}

func TestSessionRepository_ScopedPerUser(t *testing.T) {
	repo := NewSessionRepository(time.Hour)

	repo.Save(&store.Session{ID: "s1", UserID: "u1", UpstreamChatID: "up-1"})
	repo.Save(&store.Session{ID: "s1", UserID: "u2", UpstreamChatID: "up-2"})

	got, found := repo.Get("u1", "s1")
	require.True(t, found)
	assert.Equal(t, "up-1", got.UpstreamChatID)

	repo.Delete("u2", "s1")
	_, found = repo.Get("u1", "s1")
	assert.True(t, found, "deleting one user's state leaves the other's")
}

func TestSessionRepository_Expires(t *testing.T) {
	repo := NewSessionRepository(20 * time.Millisecond)
	repo.Save(&store.Session{ID: "s1", UserID: "u1"})

	time.Sleep(40 * time.Millisecond)

	_, found := repo.Get("u1", "s1")
	assert.False(t, found, "idle state is forgotten")
}
