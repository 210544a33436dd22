package response

import (
	"context"
	"fmt"

	"vehicle-rag-be/internal/pkg/logger"
	"vehicle-rag-be/pkg/llm"
	"vehicle-rag-be/pkg/rag/prompt"
	"vehicle-rag-be/pkg/vectorstore"
)

const FallbackAnswer = "AI key not configured. Based on retrieved documents, review the referenced sections " +
	"and follow manufacturer troubleshooting steps."

const answerTemperature = 0.2

// Generator writes the answer text. It never fails: a missing model yields
// FallbackAnswer and a model error is reported inside the answer.
type Generator struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

// NewGenerator accepts a nil provider, meaning no model is configured.
func NewGenerator(llmProvider llm.LLMProvider, logger logger.ILogger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

func (g *Generator) Configured() bool {
	return g.llmProvider != nil
}

func (g *Generator) Generate(ctx context.Context, question string, vehicle *prompt.VehicleContext, chunks []vectorstore.ScoredChunk) string {
	if g.llmProvider == nil {
		return FallbackAnswer
	}

	messages := prompt.NewBuilder(question, vehicle, chunks).Messages()
	answer, err := g.llmProvider.Chat(ctx, messages, llm.WithTemperature(answerTemperature))
	if err != nil {
		g.logger.Warn("GENERATOR", "LLM generation failed", map[string]interface{}{
			"error":   err.Error(),
			"sources": len(chunks),
		})
		return fmt.Sprintf("LLM error: %v. Returning retrieved context only.", err)
	}

	g.logger.Debug("GENERATOR", "Answer generated", map[string]interface{}{
		"sources": len(chunks),
		"chars":   len(answer),
	})
	return answer
}
