package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"vehicle-rag-be/internal/dto"
	"vehicle-rag-be/internal/pkg/apperror"
	"vehicle-rag-be/internal/pkg/logger"
	"vehicle-rag-be/pkg/embedding"
	"vehicle-rag-be/pkg/events"
	"vehicle-rag-be/pkg/llm"
	"vehicle-rag-be/pkg/pdf"
	"vehicle-rag-be/pkg/pdf/pdftest"
	"vehicle-rag-be/pkg/rag/response"
	"vehicle-rag-be/pkg/utils"
	"vehicle-rag-be/pkg/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	docs map[string]*pdf.Document
	errs map[string]error
}

func (e *stubExtractor) Extract(ctx context.Context, content []byte) (*pdf.Document, error) {
	key := string(content)
	if err, ok := e.errs[key]; ok {
		return nil, err
	}
	return e.docs[key], nil
}

type recordingCollection struct {
	added     []vectorstore.Chunk
	persisted int
	results   []vectorstore.ScoredChunk
	searchErr error
	addErr    error
	lastQuery string
	lastK     int
}

func (c *recordingCollection) Add(ctx context.Context, chunks []vectorstore.Chunk) error {
	if c.addErr != nil {
		return c.addErr
	}
	c.added = append(c.added, chunks...)
	return nil
}

func (c *recordingCollection) Search(ctx context.Context, query string, k int) ([]vectorstore.ScoredChunk, error) {
	c.lastQuery, c.lastK = query, k
	return c.results, c.searchErr
}

func (c *recordingCollection) Persist(ctx context.Context) error {
	c.persisted++
	return nil
}

type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.events = append(p.events, event)
	return p.err
}

type echoLLM struct {
	lastUser string
	err      error
}

func (l *echoLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	l.lastUser = history[len(history)-1].Content
	return "Replace the coil.", l.err
}

func (l *echoLLM) Generate(ctx context.Context, p string, options ...llm.Option) (string, error) {
	return l.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: p}}, options...)
}

func newTestRagService(ex pdf.Extractor, col VectorCollection, provider llm.LLMProvider, pub events.Publisher) IRagService {
	log := logger.NewNopLogger()
	return NewRagService(ex, utils.NewDefaultTextSplitter(), col, response.NewGenerator(provider, log), fakeVehicleData{}, pub, log)
}

func TestRagService_IngestBuildsPerPageChunks(t *testing.T) {
	ex := &stubExtractor{
		docs: map[string]*pdf.Document{
			"manual": {Pages: []pdf.PageText{
				{Number: 1, Text: "Remove the spark plugs."},
				{Number: 2, Text: "   "},
				{Number: 3, Err: errors.New("bad font")},
				{Number: 4, Text: "Torque to 18 Nm."},
			}},
		},
		errs: map[string]error{"corrupt": fmt.Errorf("%w: no xref", pdf.ErrUnreadable)},
	}
	col := &recordingCollection{}
	pub := &recordingPublisher{}
	svc := newTestRagService(ex, col, nil, pub)

	n, err := svc.Ingest(context.Background(), []dto.UploadedFile{
		{Name: "camry.pdf", Content: []byte("manual")},
		{Name: "broken.pdf", Content: []byte("corrupt")},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, col.added, 3)

	assert.Equal(t, "Remove the spark plugs.", col.added[0].Text)
	assert.Equal(t, "camry.pdf", col.added[0].Source)
	require.NotNil(t, col.added[0].Page)
	assert.Equal(t, 1, *col.added[0].Page)
	assert.Equal(t, "1", col.added[0].Metadata["page"])
	assert.Equal(t, 4, *col.added[1].Page)

	placeholder := col.added[2]
	assert.Equal(t, "", placeholder.Text)
	assert.Equal(t, "broken.pdf", placeholder.Source)
	assert.Nil(t, placeholder.Page)

	assert.Equal(t, 1, col.persisted)
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeDocumentsIngested, pub.events[0].EventType())
	assert.Equal(t, 3, pub.events[0].Payload()["chunks"])
}

func TestRagService_IngestNothingLeavesStoreUntouched(t *testing.T) {
	ex := &stubExtractor{docs: map[string]*pdf.Document{"blank": {Pages: []pdf.PageText{{Number: 1, Text: ""}}}}}
	col := &recordingCollection{}
	pub := &recordingPublisher{}
	svc := newTestRagService(ex, col, nil, pub)

	n, err := svc.Ingest(context.Background(), []dto.UploadedFile{{Name: "blank.pdf", Content: []byte("blank")}})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, col.added)
	assert.Zero(t, col.persisted)
	assert.Empty(t, pub.events)
}

func TestRagService_IngestFailures(t *testing.T) {
	ex := &stubExtractor{docs: map[string]*pdf.Document{"ok": {Pages: []pdf.PageText{{Number: 1, Text: "text"}}}}}

	col := &recordingCollection{addErr: errors.New("disk full")}
	svc := newTestRagService(ex, col, nil, nil)
	_, err := svc.Ingest(context.Background(), []dto.UploadedFile{{Name: "a.pdf", Content: []byte("ok")}})
	require.Error(t, err)
	assert.Equal(t, "Failed to ingest documents: disk full", err.Error())

	// A publisher failure is logged, never returned.
	col = &recordingCollection{}
	svc = newTestRagService(ex, col, nil, &recordingPublisher{err: errors.New("nats down")})
	n, err := svc.Ingest(context.Background(), []dto.UploadedFile{{Name: "a.pdf", Content: []byte("ok")}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRagService_QueryRejectsBlankQuestion(t *testing.T) {
	col := &recordingCollection{}
	svc := newTestRagService(&stubExtractor{}, col, nil, nil)

	for _, q := range []*string{nil, strPtr(""), strPtr("   ")} {
		_, err := svc.Query(context.Background(), &dto.QueryRequest{Query: q})
		require.Error(t, err)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		assert.Equal(t, "Query text is required", err.Error())
	}
	assert.Empty(t, col.lastQuery, "retrieval must not run")
}

func TestRagService_QueryFallbackWithoutLLM(t *testing.T) {
	col := &recordingCollection{results: []vectorstore.ScoredChunk{
		{Chunk: vectorstore.Chunk{Text: "Check coil packs.", Source: "camry.pdf", Page: intPtr(12)}, Score: 0.25},
		{Chunk: vectorstore.Chunk{Text: "", Source: "broken.pdf"}, Score: 0.5},
	}}
	svc := newTestRagService(&stubExtractor{}, col, nil, nil)

	res, err := svc.Query(context.Background(), &dto.QueryRequest{Query: strPtr("engine misfire")})
	require.NoError(t, err)
	assert.Equal(t, response.FallbackAnswer, res.Answer)
	assert.Equal(t, dto.DefaultTopK, col.lastK)
	require.Len(t, res.Sources, 2)
	assert.Equal(t, "camry.pdf", res.Sources[0].Source)
	assert.Equal(t, 12, *res.Sources[0].Page)
	assert.Equal(t, 0.25, res.Sources[0].Score)
	assert.Nil(t, res.Sources[1].Page)
	assert.Empty(t, res.SuggestedActions)
}

func TestRagService_QueryWithLLMAndVehicle(t *testing.T) {
	col := &recordingCollection{results: []vectorstore.ScoredChunk{
		{Chunk: vectorstore.Chunk{Text: "Check coil packs.", Source: "camry.pdf", Page: intPtr(3)}},
	}}
	model := &echoLLM{}
	svc := newTestRagService(&stubExtractor{}, col, model, nil)

	res, err := svc.Query(context.Background(), &dto.QueryRequest{
		Query:   strPtr("What causes p0300?"),
		TopK:    intPtr(2),
		Vehicle: &dto.QueryVehicleContext{Make: strPtr("Toyota"), Model: strPtr("Camry"), Year: intPtr(2018)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Replace the coil.", res.Answer)
	assert.Equal(t, 2, col.lastK)
	assert.Contains(t, model.lastUser, "Vehicle: 2018 Toyota Camry, engine: 2.5L I4, transmission: 8-speed automatic\n")
	assert.Contains(t, model.lastUser, "[source:camry.pdf p.3] Check coil packs.")
	assert.Equal(t, []string{"Scan for additional codes", "Inspect spark plugs"}, res.SuggestedActions)
}

func TestRagService_QueryLLMErrorIsAnswer(t *testing.T) {
	col := &recordingCollection{}
	svc := newTestRagService(&stubExtractor{}, col, &echoLLM{err: errors.New("rate limited")}, nil)

	res, err := svc.Query(context.Background(), &dto.QueryRequest{Query: strPtr("noise")})
	require.NoError(t, err)
	assert.Equal(t, "LLM error: rate limited. Returning retrieved context only.", res.Answer)
	assert.Empty(t, res.Sources)
}

func TestRagService_QuerySearchFailure(t *testing.T) {
	col := &recordingCollection{searchErr: errors.New("store closed")}
	svc := newTestRagService(&stubExtractor{}, col, nil, nil)

	_, err := svc.Query(context.Background(), &dto.QueryRequest{Query: strPtr("noise")})
	require.Error(t, err)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	assert.Equal(t, "Query failed: store closed", err.Error())

	col = &recordingCollection{searchErr: &vectorstore.EmbeddingError{Op: "embed query", Err: errors.New("connection refused")}}
	svc = newTestRagService(&stubExtractor{}, col, nil, nil)

	_, err = svc.Query(context.Background(), &dto.QueryRequest{Query: strPtr("noise")})
	require.Error(t, err)
	assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))
	assert.Equal(t, "Query failed: embed query: connection refused", err.Error())
}

func TestRagService_IngestThenQueryOnSQLite(t *testing.T) {
	ctx := context.Background()
	embedder := embedding.NewFakeProvider(8)
	col, err := vectorstore.Open(ctx, vectorstore.Options{Backend: "sqlite", Dir: t.TempDir()}, embedder)
	require.NoError(t, err)
	t.Cleanup(func() { _ = col.Close() })

	log := logger.NewNopLogger()
	svc := NewRagService(pdf.NewExtractor(), utils.NewDefaultTextSplitter(), col,
		response.NewGenerator(nil, log), fakeVehicleData{}, nil, log)

	n, err := svc.Ingest(ctx, []dto.UploadedFile{
		{Name: "manual.pdf", Content: pdftest.Build("Inspect the ignition coils.", "Replace the spark plugs.")},
		{Name: "junk.pdf", Content: []byte("not a pdf")},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	count, err := col.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	res, err := svc.Query(ctx, &dto.QueryRequest{Query: strPtr("misfire"), TopK: intPtr(10)})
	require.NoError(t, err)
	require.Len(t, res.Sources, 3)
	assert.Equal(t, "manual.pdf", res.Sources[0].Source)
	assert.Equal(t, 1, *res.Sources[0].Page)
	assert.Equal(t, 2, *res.Sources[1].Page)
	assert.Equal(t, "junk.pdf", res.Sources[2].Source)
}
