package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment  string
	AppName      string
	Domains      []string
	CertCacheDir string
	HTTPPort     string
	HTTPSPort    string
	LogDir       string

	// Secrets
	OpenAIAPIKey      string
	HuggingFaceAPIKey string

	// LLM
	LLMModel       string
	LLMTemperature float64
	LLMMaxTokens   int

	// Retrieval
	MaxContextTokens    int
	TopK                int
	SimilarityThreshold float64
	EmbeddingModel      string
	EmbeddingDimension  int
	VectorStore         string
	DatabaseURL         string
	QdrantAddr          string
	QdrantCollection    string

	// Cache
	RedisAddr          string
	CacheExpiration    time.Duration
	VectorCacheEnabled bool

	// Error policy for the vector-augmented flow: "degrade" or "fail".
	OnError string

	// Avatar
	AvatarModel      string
	AvatarTimeout    time.Duration
	AvatarMaxRetries int
	ArtifactTTL      time.Duration
	StorageDir       string

	// Data lake
	DataLakeRoot  string
	EventEndpoint string
}

var isTest bool

func init() {
	isTest = os.Getenv("GO_ENVIRONMENT") == "test"
	if !isTest {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}
}

func Load() Config {
	return Config{
		Environment:  getEnv("ENVIRONMENT", "development"),
		AppName:      getEnv("APP_NAME", "Avatar LLM API"),
		Domains:      []string{getEnv("DOMAIN", "example.com")},
		CertCacheDir: getEnv("CERT_CACHE_DIR", "/etc/letsencrypt/live/example.com"),
		HTTPPort:     getEnv("HTTP_PORT", "8000"),
		HTTPSPort:    getEnv("HTTPS_PORT", "443"),
		LogDir:       getEnv("LOG_DIR", "logs/chat"),

		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		HuggingFaceAPIKey: getEnv("HUGGINGFACE_API_KEY", ""),

		LLMModel:       getEnv("LLM_MODEL", "gpt-3.5-turbo"),
		LLMTemperature: getEnvAsFloat("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:   getEnvAsInt("LLM_MAX_TOKENS", 1000),

		MaxContextTokens:    getEnvAsInt("MAX_CONTEXT_TOKENS", 4000),
		TopK:                getEnvAsInt("TOP_K", 5),
		SimilarityThreshold: getEnvAsFloat("SIMILARITY_THRESHOLD", 0.0),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-ada-002"),
		EmbeddingDimension:  getEnvAsInt("EMBEDDING_DIMENSION", 1536),
		VectorStore:         getEnv("VECTOR_STORE", "pgvector"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		QdrantAddr:          getEnv("QDRANT_ADDR", "localhost:6334"),
		QdrantCollection:    getEnv("QDRANT_COLLECTION", "documents"),

		RedisAddr:          getEnv("REDIS_ADDR", "redis:6379"),
		CacheExpiration:    time.Duration(getEnvAsInt("CACHE_EXPIRATION", 3600)) * time.Second,
		VectorCacheEnabled: getEnvAsBool("VECTOR_CACHE_ENABLED", true),

		OnError: getEnv("ON_ERROR", "degrade"),

		AvatarModel:      getEnv("AVATAR_MODEL", "facebook/fastspeech2-en-ljspeech"),
		AvatarTimeout:    time.Duration(getEnvAsInt("AVATAR_TIMEOUT", 30)) * time.Second,
		AvatarMaxRetries: getEnvAsInt("AVATAR_MAX_RETRIES", 3),
		ArtifactTTL:      time.Duration(getEnvAsInt("ARTIFACT_TTL", 3600)) * time.Second,
		StorageDir:       getEnv("STORAGE_DIR", "storage"),

		DataLakeRoot:  getEnv("DATALAKE_ROOT", "datalake"),
		EventEndpoint: getEnv("EVENT_ENDPOINT", ""),
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
