package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Advisor   AdvisorConfig
	Knowledge KnowledgeConfig
	Auth      AuthConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	OllamaBaseURL  string
	EmbeddingModel string
	LLMProvider    string // "ollama"
	LLMModel       string // e.g. "qwen3:1.7b"
	TimeoutSeconds int
}

type AdvisorConfig struct {
	HistoryLimit      int
	SessionTTLMinutes int
}

type KnowledgeConfig struct {
	RootPath     string
	ChunkSize    int
	ChunkOverlap int
	ReindexTopic string
}

type AuthConfig struct {
	AdminJWTSecret string
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
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			EmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:    getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:       getEnv("LLM_MODEL", "qwen3:1.7b"),
			TimeoutSeconds: getEnvAsInt("LLM_TIMEOUT_SECONDS", 60),
		},
		Advisor: AdvisorConfig{
			HistoryLimit:      getEnvAsInt("ADVISOR_HISTORY_LIMIT", 20),
			SessionTTLMinutes: getEnvAsInt("ADVISOR_SESSION_TTL_MINUTES", 60),
		},
		Knowledge: KnowledgeConfig{
			RootPath:     getEnv("KNOWLEDGE_BASE_PATH", "./knowledge_base"),
			ChunkSize:    getEnvAsInt("CHUNK_SIZE", 350),
			ChunkOverlap: getEnvAsInt("CHUNK_OVERLAP", 100),
			ReindexTopic: getEnv("REINDEX_TOPIC_NAME", "REINDEX_KNOWLEDGE_BASE"),
		},
		Auth: AuthConfig{
			AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
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
