package config

import (
	"testing"

	"vehicle-rag-be/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_CONNECTION_STRING", "postgres://localhost/test")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := Load()

	assert.Equal(t, "0.1.0", cfg.App.Version)
	assert.Equal(t, []string{"*"}, cfg.Cors.AllowOrigins)
	assert.Equal(t, BackendSQLite, cfg.VectorStore.Backend)
	assert.Equal(t, ProviderFake, cfg.ResolvedEmbeddingProvider())
	assert.Equal(t, ProviderNone, cfg.ResolvedLLMProvider())
	assert.NoError(t, cfg.Validate())
}

func TestLoadChromaDirFallback(t *testing.T) {
	t.Setenv("CHROMA_DB_DIR", "/tmp/chroma")
	cfg := Load()
	assert.Equal(t, "/tmp/chroma", cfg.VectorStore.Dir)

	t.Setenv("VECTOR_STORE_DIR", "/tmp/vectors")
	cfg = Load()
	assert.Equal(t, "/tmp/vectors", cfg.VectorStore.Dir)
}

func TestTestModeForcesOfflineProviders(t *testing.T) {
	t.Setenv("TEST_MODE", "true")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_PROVIDER", "openai")

	cfg := Load()

	assert.True(t, cfg.App.TestMode)
	assert.Equal(t, ProviderFake, cfg.ResolvedEmbeddingProvider())
	assert.Equal(t, ProviderNone, cfg.ResolvedLLMProvider())
}

func TestAutoProvidersWithKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg := Load()
	assert.Equal(t, ProviderOpenAI, cfg.ResolvedEmbeddingProvider())
	assert.Equal(t, ProviderOpenAI, cfg.ResolvedLLMProvider())
}

func TestResolvedEmbeddingDimensions(t *testing.T) {
	t.Setenv("EMBEDDING_DIMENSIONS", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := Load()
	assert.Equal(t, OpenAIEmbeddingDimensions, cfg.ResolvedEmbeddingDimensions())

	cfg.Ai.EmbeddingProvider = ProviderOllama
	assert.Equal(t, OllamaEmbeddingDimensions, cfg.ResolvedEmbeddingDimensions())

	t.Setenv("EMBEDDING_DIMENSIONS", "384")
	cfg = Load()
	cfg.Ai.EmbeddingProvider = ProviderOllama
	assert.Equal(t, 384, cfg.ResolvedEmbeddingDimensions())

	cfg.Ai.EmbeddingDimensions = -1
	assert.Error(t, cfg.ValidateAI())
}

func TestValidateMissingDatabase(t *testing.T) {
	t.Setenv("DB_CONNECTION_STRING", "")
	cfg := Load()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, apperror.KindConfiguration, apperror.KindOf(err))
	assert.NoError(t, cfg.ValidateAI())
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	t.Setenv("DB_CONNECTION_STRING", "postgres://localhost/test")
	t.Setenv("VECTOR_STORE_BACKEND", "chroma")
	cfg := Load()
	assert.Error(t, cfg.Validate())
}

func TestGetEnvAsList(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{name: "comma separated", value: "http://a.com, http://b.com", want: []string{"http://a.com", "http://b.com"}},
		{name: "json style", value: `["GET","POST"]`, want: []string{"GET", "POST"}},
		{name: "empty uses fallback", value: "", want: []string{"*"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_LIST", tt.value)
			assert.Equal(t, tt.want, getEnvAsList("TEST_LIST", []string{"*"}))
		})
	}
}
