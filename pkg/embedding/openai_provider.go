package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultOpenAIBatchSize = 64

// OpenAIProvider calls an OpenAI compatible /embeddings endpoint.
type OpenAIProvider struct {
	BaseURL    string
	APIKey     string
	Model      string
	BatchSize  int
	MaxRetries uint64
	Client     *http.Client
	dimensions int
	// InitialInterval is the first backoff wait; tests shorten it.
	InitialInterval time.Duration
}

func NewOpenAIProvider(baseURL, apiKey, model string, dimensions int) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		APIKey:          apiKey,
		Model:           model,
		BatchSize:       defaultOpenAIBatchSize,
		MaxRetries:      3,
		Client:          &http.Client{Timeout: 60 * time.Second},
		dimensions:      dimensions,
		InitialInterval: 500 * time.Millisecond,
	}
}

type openAIEmbeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *OpenAIProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	// Blank inputs are rejected by the API; they get a zero vector locally.
	var pending []int
	for i, text := range texts {
		if isBlank(text) {
			out[i] = make([]float32, p.dimensions)
			continue
		}
		pending = append(pending, i)
	}

	batchSize := p.BatchSize
	if batchSize <= 0 {
		batchSize = defaultOpenAIBatchSize
	}
	for start := 0; start < len(pending); start += batchSize {
		end := start + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := make([]string, 0, end-start)
		for _, idx := range pending[start:end] {
			batch = append(batch, texts[idx])
		}
		vectors, err := p.embedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		for j, idx := range pending[start:end] {
			out[idx] = vectors[j]
		}
	}
	return out, nil
}

func (p *OpenAIProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *OpenAIProvider) Dimensions() int { return p.dimensions }

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	reqBody := openAIEmbeddingRequest{Model: p.Model, Input: batch}
	// Only the text-embedding-3 family accepts a dimensions override.
	if strings.HasPrefix(p.Model, "text-embedding-3") {
		reqBody.Dimensions = p.dimensions
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var result [][]float32
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/embeddings", bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+p.APIKey)

		resp, err := p.Client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("openai embeddings: status %d: %s", resp.StatusCode, string(bodyBytes))
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("openai embeddings: status %d: %s", resp.StatusCode, string(bodyBytes)))
		}

		var parsed openAIEmbeddingResponse
		if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("unmarshal response: %w", err))
		}

		vectors := make([][]float32, len(batch))
		for _, d := range parsed.Data {
			if d.Index < 0 || d.Index >= len(batch) {
				return backoff.Permanent(fmt.Errorf("openai embeddings: index %d out of range", d.Index))
			}
			vectors[d.Index] = d.Embedding
		}
		for i, vec := range vectors {
			if vec == nil {
				return backoff.Permanent(fmt.Errorf("openai embeddings: missing vector for input %d", i))
			}
			if err := checkDimensions(vec, p.dimensions); err != nil {
				return backoff.Permanent(err)
			}
		}
		result = vectors
		return nil
	}

	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return result, nil
}
