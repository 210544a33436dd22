package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"vehicle-rag-be/internal/pkg/apperror"

	"github.com/joho/godotenv"
)

const (
	ProviderAuto   = "auto"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderFake   = "fake"
	ProviderNone   = "none"

	// Native widths of the default embedding models.
	OpenAIEmbeddingDimensions = 1536
	OllamaEmbeddingDimensions = 768

	BackendSQLite   = "sqlite"
	BackendPgvector = "pgvector"
	BackendQdrant   = "qdrant"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Cors        CorsConfig
	Ai          AIConfig
	VectorStore VectorStoreConfig
	Records     RecordsConfig
	Events      EventsConfig
}

type AppConfig struct {
	Port           string
	Version        string
	Environment    string
	TestMode       bool
	LogFilePath    string
	DataDir        string
	UploadMaxBytes int
	OtelEnabled    bool
	OtelEndpoint   string
}

type DatabaseConfig struct {
	Connection   string
	MaxIdleConns int
	MaxOpenConns int
}

type CorsConfig struct {
	AllowOrigins     []string
	AllowCredentials bool
	AllowMethods     []string
	AllowHeaders     []string
}

type AIConfig struct {
	OpenAIKey            string
	OpenAIBaseURL        string
	OpenAIModel          string
	EmbeddingsModel      string
	EmbeddingProvider    string // "auto", "openai", "ollama" or "fake"
	EmbeddingDimensions  int    // 0 picks the provider's default
	LLMProvider          string // "auto", "openai", "ollama" or "none"
	OllamaBaseURL        string
	OllamaEmbeddingModel string
	OllamaLLMModel       string
}

type VectorStoreConfig struct {
	Backend    string // "sqlite", "pgvector" or "qdrant"
	Dir        string
	Collection string
	QdrantAddr string
}

type RecordsConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

type EventsConfig struct {
	NatsURL string
	Topic   string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	environment := getEnv("ENVIRONMENT", getEnv("GO_ENV", "development"))
	testMode := getEnvAsBool("TEST_MODE", false)

	cfg := &Config{
		App: AppConfig{
			Port:           getEnv("APP_PORT", "8000"),
			Version:        getEnv("APP_VERSION", "0.1.0"),
			Environment:    environment,
			TestMode:       testMode,
			LogFilePath:    getEnv("LOG_FILE_PATH", "logs/app.log"),
			DataDir:        getEnv("DATA_DIR", "data"),
			UploadMaxBytes: getEnvAsInt("UPLOAD_MAX_BYTES", 50*1024*1024),
			OtelEnabled:    getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Connection:   getEnv("DB_CONNECTION_STRING", ""),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		},
		Cors: CorsConfig{
			AllowOrigins:     getEnvAsList("CORS_ALLOW_ORIGINS", []string{"*"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", true),
			AllowMethods:     getEnvAsList("CORS_ALLOW_METHODS", []string{"*"}),
			AllowHeaders:     getEnvAsList("CORS_ALLOW_HEADERS", []string{"*"}),
		},
		Ai: AIConfig{
			OpenAIKey:            getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			EmbeddingsModel:      getEnv("EMBEDDINGS_MODEL", "text-embedding-3-small"),
			EmbeddingProvider:    strings.ToLower(getEnv("EMBEDDING_PROVIDER", ProviderAuto)),
			EmbeddingDimensions:  getEnvAsInt("EMBEDDING_DIMENSIONS", 0),
			LLMProvider:          strings.ToLower(getEnv("LLM_PROVIDER", ProviderAuto)),
			OllamaBaseURL:        getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbeddingModel: getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			OllamaLLMModel:       getEnv("OLLAMA_LLM_MODEL", "llama3"),
		},
		VectorStore: VectorStoreConfig{
			Backend:    strings.ToLower(getEnv("VECTOR_STORE_BACKEND", BackendSQLite)),
			Dir:        getEnv("VECTOR_STORE_DIR", getEnv("CHROMA_DB_DIR", "storage/vectors")),
			Collection: getEnv("VECTOR_COLLECTION", "vehicle_docs"),
			QdrantAddr: getEnv("QDRANT_ADDR", "localhost:6334"),
		},
		Records: RecordsConfig{
			DefaultPageSize: getEnvAsInt("RECORDS_DEFAULT_PAGE_SIZE", 20),
			MaxPageSize:     getEnvAsInt("RECORDS_MAX_PAGE_SIZE", 100),
		},
		Events: EventsConfig{
			NatsURL: getEnv("NATS_URL", ""),
			Topic:   getEnv("INGEST_EVENTS_TOPIC", "documents.ingested"),
		},
	}

	if testMode {
		// Offline: never reach for a hosted model while testing.
		cfg.Ai.EmbeddingProvider = ProviderFake
		cfg.Ai.LLMProvider = ProviderNone
	}

	return cfg
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	if c.Database.Connection == "" {
		return apperror.Configuration("DB_CONNECTION_STRING is not set", nil)
	}
	return c.ValidateAI()
}

// ValidateAI checks only the retrieval settings; used by tools that never touch the records database.
func (c *Config) ValidateAI() error {
	switch c.Ai.EmbeddingProvider {
	case ProviderAuto, ProviderOpenAI, ProviderOllama, ProviderFake:
	default:
		return apperror.Configuration("unsupported EMBEDDING_PROVIDER: "+c.Ai.EmbeddingProvider, nil)
	}
	switch c.Ai.LLMProvider {
	case ProviderAuto, ProviderOpenAI, ProviderOllama, ProviderNone:
	default:
		return apperror.Configuration("unsupported LLM_PROVIDER: "+c.Ai.LLMProvider, nil)
	}
	if c.Ai.EmbeddingProvider == ProviderOpenAI && c.Ai.OpenAIKey == "" {
		return apperror.Configuration("EMBEDDING_PROVIDER=openai requires OPENAI_API_KEY", nil)
	}
	if c.Ai.LLMProvider == ProviderOpenAI && c.Ai.OpenAIKey == "" {
		return apperror.Configuration("LLM_PROVIDER=openai requires OPENAI_API_KEY", nil)
	}
	if c.Ai.EmbeddingDimensions < 0 {
		return apperror.Configuration("EMBEDDING_DIMENSIONS must not be negative", nil)
	}
	switch c.VectorStore.Backend {
	case BackendSQLite:
		if c.VectorStore.Dir == "" {
			return apperror.Configuration("VECTOR_STORE_DIR is not set", nil)
		}
	case BackendPgvector:
		if c.Database.Connection == "" {
			return apperror.Configuration("VECTOR_STORE_BACKEND=pgvector requires DB_CONNECTION_STRING", nil)
		}
	case BackendQdrant:
		if c.VectorStore.QdrantAddr == "" {
			return apperror.Configuration("VECTOR_STORE_BACKEND=qdrant requires QDRANT_ADDR", nil)
		}
	default:
		return apperror.Configuration("unsupported VECTOR_STORE_BACKEND: "+c.VectorStore.Backend, nil)
	}
	return nil
}

// ResolvedEmbeddingProvider turns "auto" into a concrete provider name.
func (c *Config) ResolvedEmbeddingProvider() string {
	if c.Ai.EmbeddingProvider != ProviderAuto {
		return c.Ai.EmbeddingProvider
	}
	if c.Ai.OpenAIKey != "" {
		return ProviderOpenAI
	}
	return ProviderFake
}

// ResolvedEmbeddingDimensions returns EMBEDDING_DIMENSIONS when set, otherwise
// the width of the resolved provider's default model.
func (c *Config) ResolvedEmbeddingDimensions() int {
	if c.Ai.EmbeddingDimensions > 0 {
		return c.Ai.EmbeddingDimensions
	}
	if c.ResolvedEmbeddingProvider() == ProviderOllama {
		return OllamaEmbeddingDimensions
	}
	return OpenAIEmbeddingDimensions
}

// ResolvedLLMProvider turns "auto" into a concrete provider name.
func (c *Config) ResolvedLLMProvider() string {
	if c.Ai.LLMProvider != ProviderAuto {
		return c.Ai.LLMProvider
	}
	if c.Ai.OpenAIKey != "" {
		return ProviderOpenAI
	}
	return ProviderNone
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList reads a comma separated list. A JSON style list ["a","b"] is accepted too.
func getEnvAsList(key string, fallback []string) []string {
	strValue := strings.TrimSpace(getEnv(key, ""))
	if strValue == "" {
		return fallback
	}
	strValue = strings.TrimSuffix(strings.TrimPrefix(strValue, "["), "]")
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
