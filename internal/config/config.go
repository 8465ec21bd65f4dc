package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Ai      AIConfig
	Store   StoreConfig
	Tracing TracingConfig
	Keys    APIKeys
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	ApiCallLogPath     string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	RateLimitPerMinute int // Per caller on /chat/v1/send, 0 disables
	RateLimitBurst     int
}

type AIConfig struct {
	BaseURL           string        // Upstream generation API
	Timeout           time.Duration // Per upstream call
	DefaultGradeLevel string        // Education endpoint grade level
}

type StoreConfig struct {
	EndpointStore string        // "memory" or "redis"
	ChatCacheTTL  time.Duration // Chat history cache
	StateTTL      time.Duration // Conversation state idle expiry
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	SampleRatio float64
}

type APIKeys struct {
	JwtSecret   string
	EventsTopic string // In-process chat API call topic
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			ApiCallLogPath:     getEnv("API_CALL_LOG_PATH", "logs/api_calls.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 30),
			RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 5),
		},
		Ai: AIConfig{
			BaseURL:           getEnv("AI_API_BASE_URL", "https://api.neodalsi.com"),
			Timeout:           time.Duration(getEnvAsInt("AI_API_TIMEOUT_SECONDS", 120)) * time.Second,
			DefaultGradeLevel: getEnv("AI_DEFAULT_GRADE_LEVEL", "general"),
		},
		Store: StoreConfig{
			EndpointStore: getEnv("ENDPOINT_STORE", "memory"),
			ChatCacheTTL:  time.Duration(getEnvAsInt("CHAT_CACHE_TTL_MINUTES", 10)) * time.Minute,
			StateTTL:      time.Duration(getEnvAsInt("CONVERSATION_STATE_TTL_MINUTES", 60)) * time.Minute,
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "ai-chat-router-be"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1.0),
		},
		Keys: APIKeys{
			JwtSecret:   getEnv("JWT_SECRET", ""),
			EventsTopic: getEnv("CHAT_API_CALL_TOPIC_NAME", "CHAT_API_CALL"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
