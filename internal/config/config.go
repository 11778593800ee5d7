package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Router    RouterConfig
	Retention RetentionConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	CorsAllowedOrigins string
	LogFilePath        string
	EventLogFilePath   string
	NatsURL            string
	RedisURL           string
	SessionStore       string // "memory" or "redis"
	DecisionLogStore   string // "memory" or "postgres"
	EventBus           string // "inprocess", "nats" or "none"
	JwtSecret          string
	TelegramToken      string
	OtelEnabled        bool
	OtelSampleRatio    float64
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	Jina         string
	HuggingFace  string
	OpenAI       string
}

type AIConfig struct {
	EmbeddingProvider  string // "ollama", "gemini", "jina" or "openai"
	OllamaBaseURL      string
	OllamaModel        string
	LLMProvider        string // "ollama", "huggingface" or "openai"
	LLMModel           string
	HuggingFaceBaseURL string
	OpenAIBaseURL      string
	OpenAIEmbedModel   string
}

type RouterConfig struct {
	HandlerConfigPath   string
	ClassifierStrategy  string  // "similarity" or "generative", overrides the handler file when set
	ConfidenceThreshold float64 // 0 means use the handler file value
}

type RetentionConfig struct {
	Days     int
	Interval time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "router.log.json"),
			EventLogFilePath:   getEnv("EVENT_LOG_FILE_PATH", "routing-events.log.json"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			SessionStore:       getEnv("SESSION_STORE", "memory"),
			DecisionLogStore:   getEnv("DECISION_LOG_STORE", "memory"),
			EventBus:           getEnv("EVENT_BUS", "inprocess"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			TelegramToken:      getEnv("TELEGRAM_TOKEN", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelSampleRatio:    getEnvAsFloat("OTEL_SAMPLE_RATIO", 1),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:        getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:           getEnv("LLM_MODEL", "llama3"),
			HuggingFaceBaseURL: getEnv("HUGGINGFACE_BASE_URL", "https://router.huggingface.co/v1"),
			OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
			OpenAIEmbedModel:   getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		},
		Router: RouterConfig{
			HandlerConfigPath:   getEnv("HANDLER_CONFIG_PATH", "config/handlers.yaml"),
			ClassifierStrategy:  getEnv("CLASSIFIER_STRATEGY", ""),
			ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0),
		},
		Retention: RetentionConfig{
			Days:     getEnvAsInt("DECISION_RETENTION_DAYS", 30),
			Interval: getEnvAsDuration("RETENTION_INTERVAL", time.Hour),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// MaxAge is the decision log retention; zero keeps records forever
func (r RetentionConfig) MaxAge() time.Duration {
	if r.Days <= 0 {
		return 0
	}
	return time.Duration(r.Days) * 24 * time.Hour
}

// NeedsDatabase reports whether any component is backed by postgres
func (c *Config) NeedsDatabase() bool {
	return c.App.DecisionLogStore == "postgres"
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
