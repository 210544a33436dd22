package embedding

import "context"

// FakeProvider returns zero vectors. It keeps the pipeline runnable without
// network access or credentials; every document is equally distant from every query.
type FakeProvider struct {
	dimensions int
}

func NewFakeProvider(dimensions int) *FakeProvider {
	if dimensions <= 0 {
		dimensions = 1536
	}
	return &FakeProvider{dimensions: dimensions}
}

func (p *FakeProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, p.dimensions)
	}
	return out, nil
}

func (p *FakeProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, p.dimensions), nil
}

func (p *FakeProvider) Dimensions() int { return p.dimensions }

func (p *FakeProvider) Name() string { return "fake" }
