package generation

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-chat-router-be/internal/pkg/logger"
	"ai-chat-router-be/internal/repository/memory"
	"ai-chat-router-be/pkg/ai/classifier"
	"ai-chat-router-be/pkg/ai/router"
)

type recordingServer struct {
	mu    sync.Mutex
	paths []string
}

func (s *recordingServer) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.paths = append(s.paths, r.URL.Path)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, `{"response":"ok","chat_id":"up-1"}`)
}

func (s *recordingServer) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.paths) == 0 {
		return ""
	}
	return s.paths[len(s.paths)-1]
}

func newTestDispatcher(t *testing.T, handler http.HandlerFunc) *Dispatcher {
	t.Helper()
	log := logger.NewNopLogger()
	client := newTestClient(t, handler)
	r := router.NewRouter(memory.NewEndpointRepository(), log)
	return NewDispatcher(client, r, log)
}

func TestDispatcher_LocksFirstCategory(t *testing.T) {
	rec := &recordingServer{}
	d := newTestDispatcher(t, rec.handler)
	ctx := context.Background()

	result, err := d.Generate(ctx, "I have a headache", "s1", Options{})
	require.NoError(t, err)
	assert.Equal(t, PathHealthcare, rec.last())
	require.NotNil(t, result.Route)
	assert.Equal(t, router.SourceClassified, result.Route.Source)
	assert.Equal(t, "up-1", result.ChatID)

	result, err = d.Generate(ctx, "teach me algebra", "s1", Options{})
	require.NoError(t, err)
	assert.Equal(t, PathHealthcare, rec.last())
	assert.Equal(t, classifier.Healthcare, result.Category)
	assert.Equal(t, router.SourceLocked, result.Route.Source)
}

func TestDispatcher_ForceEndpoint(t *testing.T) {
	rec := &recordingServer{}
	d := newTestDispatcher(t, rec.handler)

	result, err := d.Generate(context.Background(), "I have a headache", "s1", Options{ForceEndpoint: classifier.Education})
	require.NoError(t, err)
	assert.Equal(t, PathEducation, rec.last())
	assert.Equal(t, router.SourceForced, result.Route.Source)
}

func TestDispatcher_DisableAutoDetect(t *testing.T) {
	rec := &recordingServer{}
	d := newTestDispatcher(t, rec.handler)

	result, err := d.Generate(context.Background(), "I have a headache", "s1", Options{DisableAutoDetect: true})
	require.NoError(t, err)
	assert.Equal(t, PathGeneral, rec.last())
	assert.Equal(t, classifier.General, result.Category)

	// Nothing was locked, so the next auto-detected message still classifies
	_, err = d.Generate(context.Background(), "teach me algebra", "s1", Options{})
	require.NoError(t, err)
	assert.Equal(t, PathEducation, rec.last())
}

func TestDispatcher_UseHistoryDefault(t *testing.T) {
	off := false
	assert.True(t, Options{}.useHistory())
	assert.False(t, Options{UseHistory: &off}.useHistory())
}

func TestCall_Completes(t *testing.T) {
	d := newTestDispatcher(t, (&recordingServer{}).handler)

	var completed int32
	call := d.Start(context.Background(), "hello", "", Options{}, Callbacks{
		OnComplete: func(*Result) { atomic.AddInt32(&completed, 1) },
		OnError:    func(error) { t.Error("unexpected error callback") },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := call.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Text())
	assert.Equal(t, int32(1), atomic.LoadInt32(&completed))
	assert.False(t, call.Cancel())
}

func TestCall_CancelDropsLateOutcome(t *testing.T) {
	release := make(chan struct{})
	d := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, `{"response":"too late"}`)
	})
	defer close(release)

	var completed, failed, cancelled int32
	call := d.Start(context.Background(), "hello", "", Options{}, Callbacks{
		OnComplete: func(*Result) { atomic.AddInt32(&completed, 1) },
		OnError:    func(error) { atomic.AddInt32(&failed, 1) },
		OnCancel:   func() { atomic.AddInt32(&cancelled, 1) },
	})

	assert.True(t, call.Cancel())
	assert.False(t, call.Cancel())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := call.Wait(ctx)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrCancelled))

	// A late resolution must not reach any handler
	assert.False(t, call.resolve(&Result{Content: ChatPayload("late")}, nil))
	assert.False(t, call.resolve(nil, ErrGeneration))

	assert.Equal(t, int32(0), atomic.LoadInt32(&completed))
	assert.Equal(t, int32(0), atomic.LoadInt32(&failed))
	assert.Equal(t, int32(1), atomic.LoadInt32(&cancelled))
}

func TestCall_ErrorSettlesOnce(t *testing.T) {
	d := newTestDispatcher(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":"expired"}`)
	})

	errs := make(chan error, 2)
	call := d.Start(context.Background(), "hello", "", Options{}, Callbacks{
		OnError: func(err error) { errs <- err },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := call.Wait(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthentication))

	assert.False(t, call.Cancel())
	require.Len(t, errs, 1)
	assert.Equal(t, "expired", (<-errs).Error())
}
