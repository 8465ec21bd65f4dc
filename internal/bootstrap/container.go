package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-chat-router-be/internal/config"
	"ai-chat-router-be/internal/controller"
	"ai-chat-router-be/internal/pkg/logger"
	"ai-chat-router-be/internal/pkg/serverutils"
	"ai-chat-router-be/internal/repository/memory"
	"ai-chat-router-be/internal/repository/redisstore"
	"ai-chat-router-be/internal/service"
	"ai-chat-router-be/pkg/ai/generation"
	"ai-chat-router-be/pkg/ai/router"
	"ai-chat-router-be/pkg/chatapi"
	"ai-chat-router-be/pkg/chatevents"

	pktNats "ai-chat-router-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	ChatController        controller.IChatController
	ChatHistoryController controller.IChatHistoryController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Reported by /health
	EndpointStore string
	EventsEnabled bool

	Logger  logger.ILogger
	closers []func()
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	apiCallLogger := logger.NewIsolatedLogger(cfg.App.ApiCallLogPath)

	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// NATS is optional: without it events are only written to the API call log
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			natsPub = pub
			c.EventsEnabled = true
			c.closers = append(c.closers, pub.Close)
		}
	}
	chatEvents := chatevents.NewNatsPublisher(natsPub, sysLogger)

	// 3. Endpoint lock store
	endpointRouter := router.NewRouter(newEndpointStore(cfg, c), sysLogger)

	// 4. Services
	client := generation.NewClient(cfg.Ai.BaseURL, cfg.Ai.Timeout, sysLogger)
	dispatcher := generation.NewDispatcher(client, endpointRouter, sysLogger)
	sessionRepo := memory.NewSessionRepository(cfg.Store.StateTTL)

	publisherService := service.NewPublisherService(cfg.Keys.EventsTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		cfg.Keys.EventsTopic,
		apiCallLogger,
		chatEvents,
	)

	chatService := service.NewChatService(
		dispatcher,
		endpointRouter,
		sessionRepo,
		publisherService,
		chatEvents,
		sysLogger,
		cfg.Ai.DefaultGradeLevel,
	)
	historyService := service.NewChatHistoryService(
		chatapi.NewClient(cfg.Ai.BaseURL, cfg.Ai.Timeout, cfg.Store.ChatCacheTTL, sysLogger),
	)

	// 5. Controllers
	c.ChatController = controller.NewChatController(
		chatService,
		cfg.Keys.JwtSecret,
		serverutils.NewRateLimiter(cfg.App.RateLimitPerMinute, cfg.App.RateLimitBurst),
	)
	c.ChatHistoryController = controller.NewChatHistoryController(historyService, cfg.Keys.JwtSecret)

	return c
}

// newEndpointStore picks redis when asked and reachable, memory otherwise
func newEndpointStore(cfg *config.Config, c *Container) router.EndpointStore {
	if cfg.Store.EndpointStore != "redis" {
		c.EndpointStore = "memory"
		return memory.NewEndpointRepository()
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Falling back to in-memory endpoint store", err)
		_ = rdb.Close()
		c.EndpointStore = "memory"
		return memory.NewEndpointRepository()
	}

	c.EndpointStore = "redis"
	c.closers = append(c.closers, func() { _ = rdb.Close() })
	return redisstore.NewEndpointRepository(rdb)
}

// Close releases connections in reverse order of creation
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
