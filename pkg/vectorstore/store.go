package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"vehicle-rag-be/pkg/embedding"

	"github.com/google/uuid"
)

// ErrDimensionMismatch means a backend was opened, or fed vectors, with a
// dimension other than the one it stores.
var ErrDimensionMismatch = errors.New("vectorstore: dimension mismatch")

// EmbeddingError marks a failure of the embedding provider, as opposed to the
// storage backend, inside Collection.Add or Collection.Search.
type EmbeddingError struct {
	Op  string
	Err error
}

func (e *EmbeddingError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *EmbeddingError) Unwrap() error { return e.Err }

// Chunk is a piece of a source document. Page is nil when unknown.
type Chunk struct {
	ID       string
	Text     string
	Source   string
	Page     *int
	Metadata map[string]string
}

// ScoredChunk carries the Euclidean distance to the query; lower is closer.
type ScoredChunk struct {
	Chunk
	Score float64
}

// Backend is the storage engine under a Collection. It is append only.
type Backend interface {
	Add(ctx context.Context, chunks []Chunk, vectors [][]float32) error
	// Search returns at most k chunks ordered by increasing L2 distance;
	// equal distances keep insertion order.
	Search(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error)
	Count(ctx context.Context) (int64, error)
	// Persist makes every added chunk durable.
	Persist(ctx context.Context) error
	Dimensions() int
	Close() error
}

// Collection embeds text with its provider and stores it in its backend.
type Collection struct {
	backend  Backend
	embedder embedding.Provider
}

func NewCollection(backend Backend, embedder embedding.Provider) (*Collection, error) {
	if backend.Dimensions() != embedder.Dimensions() {
		return nil, fmt.Errorf("%w: store has %d, embedder %s produces %d",
			ErrDimensionMismatch, backend.Dimensions(), embedder.Name(), embedder.Dimensions())
	}
	return &Collection{backend: backend, embedder: embedder}, nil
}

// Add embeds and appends chunks. Chunks without an ID get a random one.
func (c *Collection) Add(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	stored := make([]Chunk, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
		if ch.ID == "" {
			ch.ID = uuid.NewString()
		}
		stored[i] = ch
	}

	vectors, err := c.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return &EmbeddingError{Op: fmt.Sprintf("embed %d chunks", len(chunks)), Err: err}
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	return c.backend.Add(ctx, stored, vectors)
}

// Search returns the k chunks closest to query. k <= 0 yields nothing.
func (c *Collection) Search(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return []ScoredChunk{}, nil
	}
	vector, err := c.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, &EmbeddingError{Op: "embed query", Err: err}
	}
	return c.backend.Search(ctx, vector, k)
}

func (c *Collection) Count(ctx context.Context) (int64, error) {
	return c.backend.Count(ctx)
}

func (c *Collection) Persist(ctx context.Context) error {
	return c.backend.Persist(ctx)
}

func (c *Collection) Close() error {
	return c.backend.Close()
}

func checkVectors(vectors [][]float32, dims int) error {
	for _, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), dims)
		}
	}
	return nil
}
