package generation

import (
	"context"
	"encoding/json"
	"net/http"

	"ai-chat-router-be/internal/pkg/logger"
	"ai-chat-router-be/pkg/ai/classifier"
	"ai-chat-router-be/pkg/ai/router"
)

// Options controls one dispatched generation
type Options struct {
	Mode              Mode
	UseHistory        *bool  // nil means true
	UpstreamSessionID string // Upstream chat id to continue
	GradeLevel        string
	ForceEndpoint     classifier.Category
	DisableAutoDetect bool // Skip classification and the session lock, use general
	Header            http.Header
}

func (o Options) useHistory() bool {
	if o.UseHistory == nil {
		return true
	}
	return *o.UseHistory
}

// Dispatcher picks the endpoint for a message and calls it
type Dispatcher struct {
	client *Client
	router *router.Router
	logger logger.ILogger
}

func NewDispatcher(client *Client, router *router.Router, logger logger.ILogger) *Dispatcher {
	return &Dispatcher{
		client: client,
		router: router,
		logger: logger,
	}
}

// Decide returns the routing decision without calling upstream
func (d *Dispatcher) Decide(ctx context.Context, message, sessionID string, opts Options) router.Decision {
	switch {
	case opts.ForceEndpoint.Valid():
		return d.router.Route(ctx, sessionID, message, opts.ForceEndpoint)
	case opts.DisableAutoDetect:
		return router.Decision{Category: classifier.General, Source: router.SourceStateless}
	default:
		return d.router.Route(ctx, sessionID, message, "")
	}
}

// Generate routes message and performs exactly one upstream call
func (d *Dispatcher) Generate(ctx context.Context, message, sessionID string, opts Options) (*Result, error) {
	decision := d.Decide(ctx, message, sessionID, opts)

	d.logger.Info(logModule, "Dispatching generation", map[string]interface{}{
		"session_id": sessionID,
		"category":   decision.Category,
		"source":     decision.Source,
		"mode":       opts.Mode,
	})

	result, err := d.client.Generate(ctx, decision.Category, Request{
		Message:    message,
		Mode:       opts.Mode,
		UseHistory: opts.useHistory(),
		SessionID:  opts.UpstreamSessionID,
		GradeLevel: opts.GradeLevel,
	}, opts.Header)
	if err != nil {
		return nil, err
	}

	result.Route = &decision
	return result, nil
}

// ConversationTree passes through to the upstream tree endpoint
func (d *Dispatcher) ConversationTree(ctx context.Context, upstreamSessionID string, header http.Header) (json.RawMessage, error) {
	return d.client.ConversationTree(ctx, upstreamSessionID, header)
}
