package service

import (
	"context"

	"ai-chat-router-be/internal/pkg/logger"
	"ai-chat-router-be/pkg/chatevents"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains chat API call records off the in-process bus, writes
// them to the API call log and forwards them to the external bus
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	callLogger logger.ILogger
	publisher  chatevents.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	callLogger logger.ILogger,
	publisher chatevents.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		callLogger: callLogger,
		publisher:  publisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	record, err := chatevents.UnmarshalRecord(msg.Payload)
	if err != nil {
		cs.callLogger.Error("CONSUMER", "Failed to unmarshal API call record", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		// Invalid payloads are never going to parse, drop them
		msg.Ack()
		return
	}

	details := record.Map()
	if record.Success {
		cs.callLogger.Info("CONSUMER", "Chat API call", details)
	} else {
		cs.callLogger.Warn("CONSUMER", "Chat API call failed", details)
	}

	cs.publisher.PublishApiCall(ctx, record)
	msg.Ack()
}
