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
	Retrieval RetrievalConfig
	Events    EventsConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	RagLogFilePath     string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
}

type DatabaseConfig struct {
	Connection string
	Debug      bool
}

type APIKeys struct {
	OpenAI       string
	Anthropic    string
	Perplexity   string
	GoogleGemini string
	Jina         string
	OpenLeg      string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini", "ollama" or "jina"
	OllamaBaseURL     string
	OllamaModel       string // embedding model
	LLMProvider       string // default chat provider: "openai", "anthropic", "perplexity", "ollama"
	LLMModel          string
	OllamaChatModel   string
	MaxTokens         int
	Temperature       float64
}

type RetrievalConfig struct {
	Session             int // active legislative session year
	SimilarityThreshold float64
	SemanticLimit       int
	FragmentsPerRecord  int
	TierLimit           int
	FullTextMaxChars    int
	ContextMaxChars     int
	RetrieverTimeout    time.Duration
	OpenLegBaseURL      string
	LiveCacheTTL        time.Duration
}

type EventsConfig struct {
	TurnFinalizedTopic string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			RagLogFilePath:     getEnv("RAG_LOG_FILE_PATH", "logs/rag.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			Debug:      getEnvAsBool("DB_DEBUG", false),
		},
		Keys: APIKeys{
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			Anthropic:    getEnv("ANTHROPIC_API_KEY", ""),
			Perplexity:   getEnv("PERPLEXITY_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Jina:         getEnv("JINA_API_KEY", ""),
			OpenLeg:      getEnv("OPENLEG_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
			LLMModel:          getEnv("LLM_MODEL", "gpt-4o-mini"),
			OllamaChatModel:   getEnv("OLLAMA_CHAT_MODEL", "llama3"),
			MaxTokens:         getEnvAsInt("LLM_MAX_TOKENS", 2048),
			Temperature:       getEnvAsFloat("LLM_TEMPERATURE", 0.3),
		},
		Retrieval: RetrievalConfig{
			Session:             getEnvAsInt("LEGISLATIVE_SESSION", 2025),
			SimilarityThreshold: getEnvAsFloat("SIMILARITY_THRESHOLD", 0.55),
			SemanticLimit:       getEnvAsInt("SEMANTIC_LIMIT", 15),
			FragmentsPerRecord:  getEnvAsInt("FRAGMENTS_PER_RECORD", 2),
			TierLimit:           getEnvAsInt("TIER_LIMIT", 10),
			FullTextMaxChars:    getEnvAsInt("FULL_TEXT_MAX_CHARS", 8000),
			ContextMaxChars:     getEnvAsInt("CONTEXT_MAX_CHARS", 24000),
			RetrieverTimeout:    getEnvAsDuration("RETRIEVER_TIMEOUT", 8*time.Second),
			OpenLegBaseURL:      getEnv("OPENLEG_BASE_URL", "https://legislation.nysenate.gov"),
			LiveCacheTTL:        getEnvAsDuration("LIVE_CACHE_TTL", 15*time.Minute),
		},
		Events: EventsConfig{
			TurnFinalizedTopic: getEnv("TURN_FINALIZED_TOPIC", "CHAT_TURN_FINALIZED"),
		},
	}
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
