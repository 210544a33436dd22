package integration

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"vehicle-rag-be/pkg/embedding"
	"vehicle-rag-be/pkg/llm"
	"vehicle-rag-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ollamaURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("OLLAMA_BASE_URL")
	if url == "" {
		url = "http://localhost:11434"
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url + "/api/tags")
	if err != nil {
		t.Skipf("Skipping Ollama test: %s not reachable", url)
	}
	resp.Body.Close()
	return url
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestOllamaChat(t *testing.T) {
	url := ollamaURL(t)
	provider := ollama.NewOllamaProvider(url, envOr("OLLAMA_LLM_MODEL", "llama3"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	answer, err := provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "Answer in one short sentence."},
		{Role: llm.RoleUser, Content: "What does a P0300 code usually mean?"},
	}, llm.WithTemperature(0.2))
	require.NoError(t, err)
	assert.NotEmpty(t, answer)
}

func TestOllamaEmbeddings(t *testing.T) {
	url := ollamaURL(t)
	dims := 768
	provider := embedding.NewOllamaProvider(url, envOr("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"), dims)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	vectors, err := provider.EmbedDocuments(ctx, []string{"spark plug gap", "brake pad wear"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], dims)
}
