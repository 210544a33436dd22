package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrDimensionMismatch is returned when a backend hands back a vector of the wrong length.
var ErrDimensionMismatch = errors.New("embedding: dimension mismatch")

// Provider maps text to fixed-length vectors.
type Provider interface {
	// EmbedDocuments embeds texts in order; the result has one vector per input.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery embeds a single search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Name() string
}

// CheckProvider embeds one short text and compares its width with
// Dimensions(). A model that disagrees with the configured width fails with
// ErrDimensionMismatch; transport failures are returned as they are.
func CheckProvider(ctx context.Context, p Provider) error {
	vec, err := p.EmbedQuery(ctx, "engine misfire")
	if err != nil {
		return err
	}
	return checkDimensions(vec, p.Dimensions())
}

func checkDimensions(vec []float32, want int) error {
	if len(vec) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), want)
	}
	return nil
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
