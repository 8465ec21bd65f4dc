package router

import (
	"context"

	"ai-chat-router-be/internal/pkg/logger"
	"ai-chat-router-be/pkg/ai/classifier"
)

const logModule = "ROUTER"

// Source explains how a routing decision was reached
type Source string

const (
	SourceForced     Source = "forced"     // Caller supplied the category
	SourceLocked     Source = "locked"     // Session already had a category
	SourceClassified Source = "classified" // First message, category just locked
	SourceStateless  Source = "stateless"  // No session id, nothing stored
)

// Decision is the result of routing one message
type Decision struct {
	Category classifier.Category `json:"category"`
	Source   Source              `json:"source"`
}

// EndpointStore keeps the session -> category lock.
// SetIfAbsent must be atomic: it returns the category that ends up stored and
// whether this call stored it.
type EndpointStore interface {
	Get(ctx context.Context, sessionID string) (classifier.Category, bool, error)
	SetIfAbsent(ctx context.Context, sessionID string, category classifier.Category) (classifier.Category, bool, error)
	Set(ctx context.Context, sessionID string, category classifier.Category) error
	Clear(ctx context.Context, sessionID string) error
}

// Router pins every session to the endpoint category of its first message
type Router struct {
	store  EndpointStore
	logger logger.ILogger
}

// NewRouter creates a new endpoint router
func NewRouter(store EndpointStore, logger logger.ILogger) *Router {
	return &Router{
		store:  store,
		logger: logger,
	}
}

// Resolve returns the locked category for sessionID, locking classified if the
// session has none yet. An empty sessionID is stateless. Never fails: a store
// error degrades to the classified category.
func (r *Router) Resolve(ctx context.Context, sessionID string, classified classifier.Category) classifier.Category {
	return r.resolve(ctx, sessionID, classified).Category
}

func (r *Router) resolve(ctx context.Context, sessionID string, classified classifier.Category) Decision {
	if sessionID == "" {
		return Decision{Category: classified, Source: SourceStateless}
	}

	stored, created, err := r.store.SetIfAbsent(ctx, sessionID, classified)
	if err != nil {
		r.logger.Warn(logModule, "Endpoint store unavailable, using classified endpoint", map[string]interface{}{
			"session_id": sessionID,
			"category":   classified,
			"error":      err.Error(),
		})
		return Decision{Category: classified, Source: SourceClassified}
	}

	if !created {
		r.logger.Info(logModule, "Using locked endpoint for conversation", map[string]interface{}{
			"session_id": sessionID,
			"locked":     stored,
			"ignored":    classified,
		})
		return Decision{Category: stored, Source: SourceLocked}
	}

	r.logger.Info(logModule, "Locking endpoint for conversation", map[string]interface{}{
		"session_id": sessionID,
		"category":   stored,
	})
	return Decision{Category: stored, Source: SourceClassified}
}

// Force writes category for sessionID as-is, bypassing classification.
// Used when the category is already known, e.g. restored conversation metadata.
func (r *Router) Force(ctx context.Context, sessionID string, category classifier.Category) classifier.Category {
	if sessionID == "" {
		return category
	}
	if err := r.store.Set(ctx, sessionID, category); err != nil {
		r.logger.Warn(logModule, "Failed to store forced endpoint", map[string]interface{}{
			"session_id": sessionID,
			"category":   category,
			"error":      err.Error(),
		})
	}
	r.logger.Info(logModule, "Using forced endpoint", map[string]interface{}{
		"session_id": sessionID,
		"category":   category,
	})
	return category
}

// Route is the full decision for one message: a valid forced category wins,
// an existing lock is returned without classifying, otherwise the message is
// classified and the result locked.
func (r *Router) Route(ctx context.Context, sessionID, message string, forced classifier.Category) Decision {
	if forced.Valid() {
		return Decision{Category: r.Force(ctx, sessionID, forced), Source: SourceForced}
	}

	if sessionID != "" {
		if locked, ok := r.Lookup(ctx, sessionID); ok {
			r.logger.Debug(logModule, "Session already locked, skipping classification", map[string]interface{}{
				"session_id": sessionID,
				"category":   locked,
			})
			return Decision{Category: locked, Source: SourceLocked}
		}
	}

	classified := classifier.Classify(message)
	r.logger.Debug(logModule, "Query classified", map[string]interface{}{
		"category": classified,
		"message":  truncateLog(message, 50),
	})

	return r.resolve(ctx, sessionID, classified)
}

// Lookup returns the locked category for sessionID, if any
func (r *Router) Lookup(ctx context.Context, sessionID string) (classifier.Category, bool) {
	if sessionID == "" {
		return "", false
	}
	category, found, err := r.store.Get(ctx, sessionID)
	if err != nil {
		r.logger.Warn(logModule, "Failed to read endpoint lock", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return "", false
	}
	return category, found
}

// Release drops the lock for sessionID so its next message is classified again
func (r *Router) Release(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return r.store.Clear(ctx, sessionID)
}

// truncateLog truncates string for logging
func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
