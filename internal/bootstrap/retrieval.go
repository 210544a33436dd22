package bootstrap

import (
	"context"
	"errors"
	"time"

	"vehicle-rag-be/internal/config"
	"vehicle-rag-be/internal/pkg/apperror"
	"vehicle-rag-be/internal/pkg/logger"
	"vehicle-rag-be/internal/repository/memory"
	"vehicle-rag-be/internal/service"
	"vehicle-rag-be/pkg/embedding"
	"vehicle-rag-be/pkg/events"
	"vehicle-rag-be/pkg/llm"
	"vehicle-rag-be/pkg/llm/factory"
	"vehicle-rag-be/pkg/pdf"
	"vehicle-rag-be/pkg/rag/response"
	"vehicle-rag-be/pkg/utils"
	"vehicle-rag-be/pkg/vectorstore"

	"github.com/sony/gobreaker"
	"gorm.io/gorm"
)

const embedderCheckTimeout = 15 * time.Second

// Retrieval is everything ingest and query need. The HTTP server and ragctl both build one.
type Retrieval struct {
	Embedder    embedding.Provider
	Collection  *vectorstore.Collection
	Generator   *response.Generator
	VehicleData *memory.VehicleDataRepository
	RagService  service.IRagService
}

// NewRetrieval wires the embedder, vector store, model and lookup store.
// db may be nil unless the pgvector backend is selected.
func NewRetrieval(ctx context.Context, cfg *config.Config, db *gorm.DB, publisher events.Publisher, log logger.ILogger) (*Retrieval, error) {
	embeddingProvider := cfg.ResolvedEmbeddingProvider()
	embedder, err := embedding.NewProvider(embedding.Options{
		Provider:      embeddingProvider,
		Dimensions:    cfg.ResolvedEmbeddingDimensions(),
		OpenAIBaseURL: cfg.Ai.OpenAIBaseURL,
		OpenAIKey:     cfg.Ai.OpenAIKey,
		OpenAIModel:   cfg.Ai.EmbeddingsModel,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		OllamaModel:   cfg.Ai.OllamaEmbeddingModel,
	})
	if err != nil {
		return nil, apperror.Configuration("failed to create embedding provider", err)
	}
	if err := checkEmbedder(ctx, embedder, log); err != nil {
		return nil, err
	}

	collection, err := vectorstore.Open(ctx, vectorstore.Options{
		Backend:    cfg.VectorStore.Backend,
		Dir:        cfg.VectorStore.Dir,
		Collection: cfg.VectorStore.Collection,
		QdrantAddr: cfg.VectorStore.QdrantAddr,
		DB:         db,
	}, embedder)
	if err != nil {
		if errors.Is(err, vectorstore.ErrDimensionMismatch) {
			return nil, apperror.Configuration("vector store does not match the embedding provider", err)
		}
		return nil, apperror.Configuration("failed to open vector store", err)
	}

	llmProviderName := cfg.ResolvedLLMProvider()
	llmOpts := factory.Options{
		Provider: llmProviderName,
		Breaker: &llm.BreakerConfig{
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("LLM", "Circuit breaker state changed", map[string]interface{}{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				})
			},
		},
	}
	switch llmProviderName {
	case config.ProviderOpenAI:
		llmOpts.Model = cfg.Ai.OpenAIModel
		llmOpts.BaseURL = cfg.Ai.OpenAIBaseURL
		llmOpts.APIKey = cfg.Ai.OpenAIKey
	case config.ProviderOllama:
		llmOpts.Model = cfg.Ai.OllamaLLMModel
		llmOpts.BaseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(llmOpts)
	if err != nil {
		collection.Close()
		return nil, apperror.Configuration("failed to create LLM provider", err)
	}

	vehicleData, err := memory.NewVehicleDataRepository(cfg.App.DataDir, log)
	if err != nil {
		collection.Close()
		return nil, apperror.Configuration("failed to load vehicle datasets", err)
	}

	generator := response.NewGenerator(llmProvider, log)
	ragService := service.NewRagService(
		pdf.NewExtractor(),
		utils.NewDefaultTextSplitter(),
		collection,
		generator,
		vehicleData,
		publisher,
		log,
	)

	log.Info("BOOTSTRAP", "Retrieval ready", map[string]interface{}{
		"embedder":         embedder.Name(),
		"dimensions":       embedder.Dimensions(),
		"vector_backend":   cfg.VectorStore.Backend,
		"llm":              llmProviderName,
		"diagnostic_codes": vehicleData.DiagnosticCodeCount(),
		"vehicles":         vehicleData.VehicleCount(),
	})

	return &Retrieval{
		Embedder:    embedder,
		Collection:  collection,
		Generator:   generator,
		VehicleData: vehicleData,
		RagService:  ragService,
	}, nil
}

// checkEmbedder asks a remote embedder for one vector. A width other than the
// configured one is fatal; an unreachable backend is only logged so the
// service can start before the model server does.
func checkEmbedder(ctx context.Context, embedder embedding.Provider, log logger.ILogger) error {
	if embedder.Name() == config.ProviderFake {
		return nil
	}
	checkCtx, cancel := context.WithTimeout(ctx, embedderCheckTimeout)
	defer cancel()

	err := embedding.CheckProvider(checkCtx, embedder)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, embedding.ErrDimensionMismatch):
		return apperror.Configuration("embedding model does not match EMBEDDING_DIMENSIONS", err)
	default:
		log.Warn("BOOTSTRAP", "Embedding provider not reachable, skipping dimension check", map[string]interface{}{
			"embedder": embedder.Name(),
			"error":    err.Error(),
		})
		return nil
	}
}

func (r *Retrieval) Close() error {
	return r.Collection.Close()
}
