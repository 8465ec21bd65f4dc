package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-chat-router-be/internal/config"
	"ai-chat-router-be/pkg/events"
	pktNats "ai-chat-router-be/pkg/nats"

	"github.com/fatih/color"
)

// event_tail prints chat gateway events from the bus as they arrive.
// Optional first argument narrows the subject, e.g. CHAT_API_CALL.
func main() {
	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		log.Fatal("NATS_URL not set")
	}

	subject := pktNats.SubjectPrefix + ".>"
	if len(os.Args) > 1 {
		subject = pktNats.Subject(os.Args[1])
	}

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = sub.Subscribe(ctx, subject, "", func(ctx context.Context, evt events.Event) error {
		data, _ := json.Marshal(evt.Payload())
		switch evt.EventType() {
		case events.TypeApiCall:
			if ok, _ := evt.Payload()["success"].(bool); !ok {
				color.Red("%s %s %s", evt.Timestamp().Format("15:04:05"), evt.EventType(), data)
				return nil
			}
			color.Green("%s %s %s", evt.Timestamp().Format("15:04:05"), evt.EventType(), data)
		default:
			color.Cyan("%s %s %s", evt.Timestamp().Format("15:04:05"), evt.EventType(), data)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	color.Yellow("Tailing %s (Ctrl+C to stop)", subject)
	<-ctx.Done()
}
