package chatevents

import (
	"context"

	"ai-chat-router-be/internal/pkg/logger"
	"ai-chat-router-be/pkg/ai/classifier"
	pkgEvents "ai-chat-router-be/pkg/events"
	pktNats "ai-chat-router-be/pkg/nats"
)

// Publisher abstracts event publishing for chat routing
type Publisher interface {
	PublishEndpointLocked(ctx context.Context, sessionID, userID string, category classifier.Category)
	PublishEndpointForced(ctx context.Context, sessionID, userID string, category classifier.Category)
	PublishSessionReset(ctx context.Context, sessionID, userID string)
	PublishApiCall(ctx context.Context, record ApiCallRecord)
}

// EventBus is the part of the NATS publisher this package needs
type EventBus interface {
	Publish(ctx context.Context, event pkgEvents.Event) error
}

// NatsPublisher implements Publisher using NATS. A nil bus makes every call a no-op.
type NatsPublisher struct {
	bus    EventBus
	logger logger.ILogger
}

func NewNatsPublisher(publisher *pktNats.Publisher, logger logger.ILogger) *NatsPublisher {
	p := &NatsPublisher{logger: logger}
	if publisher != nil {
		p.bus = publisher
	}
	return p
}

// NewPublisher wraps any EventBus
func NewPublisher(bus EventBus, logger logger.ILogger) *NatsPublisher {
	return &NatsPublisher{bus: bus, logger: logger}
}

// PublishEndpointLocked emits CHAT_ENDPOINT_LOCKED when a session gets its category
func (p *NatsPublisher) PublishEndpointLocked(ctx context.Context, sessionID, userID string, category classifier.Category) {
	p.publish(ctx, pkgEvents.New(pkgEvents.TypeEndpointLocked, map[string]interface{}{
		"session_id":  sessionID,
		"user_id":     userID,
		"category":    category.String(),
		"entity_type": "chat_session",
		"entity_id":   sessionID,
	}))
}

func (p *NatsPublisher) PublishEndpointForced(ctx context.Context, sessionID, userID string, category classifier.Category) {
	p.publish(ctx, pkgEvents.New(pkgEvents.TypeEndpointForced, map[string]interface{}{
		"session_id":  sessionID,
		"user_id":     userID,
		"category":    category.String(),
		"entity_type": "chat_session",
		"entity_id":   sessionID,
	}))
}

func (p *NatsPublisher) PublishSessionReset(ctx context.Context, sessionID, userID string) {
	p.publish(ctx, pkgEvents.New(pkgEvents.TypeSessionReset, map[string]interface{}{
		"session_id":  sessionID,
		"user_id":     userID,
		"entity_type": "chat_session",
		"entity_id":   sessionID,
	}))
}

// PublishApiCall emits CHAT_API_CALL for one upstream request
func (p *NatsPublisher) PublishApiCall(ctx context.Context, record ApiCallRecord) {
	p.publish(ctx, pkgEvents.New(pkgEvents.TypeApiCall, record.Map()))
}

func (p *NatsPublisher) publish(ctx context.Context, evt pkgEvents.BaseEvent) {
	if p.bus == nil {
		return
	}
	if err := p.bus.Publish(ctx, evt); err != nil {
		p.logger.Error("EVENTS", "Failed to publish "+evt.Type+" event", map[string]interface{}{"error": err.Error()})
	}
}
