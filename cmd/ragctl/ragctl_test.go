package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vehicle-rag-be/internal/config"
	"vehicle-rag-be/internal/dto"
	"vehicle-rag-be/internal/pkg/logger"
	"vehicle-rag-be/internal/service"
	"vehicle-rag-be/pkg/events"

	pktNats "vehicle-rag-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

type stubRag struct {
	ingested []dto.UploadedFile
	query    *dto.QueryRequest
}

func (s *stubRag) Ingest(ctx context.Context, files []dto.UploadedFile) (int, error) {
	s.ingested = files
	return 4, nil
}

func (s *stubRag) Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	s.query = req
	page := 7
	return &dto.QueryResponse{
		Answer:           "Replace the coil pack.",
		Sources:          []dto.SourceResponse{{Text: "Coil   pack\nremoval", Source: "camry.pdf", Page: &page, Score: 0.5}},
		SuggestedActions: []string{"Inspect spark plugs"},
	}, nil
}

func testDeps(rag *stubRag, natsURL string) *deps {
	return &deps{
		loadConfig: func() *config.Config {
			cfg := &config.Config{}
			cfg.Events.NatsURL = natsURL
			return cfg
		},
		openRag: func(ctx context.Context, cfg *config.Config, log logger.ILogger) (service.IRagService, func(), error) {
			return rag, func() {}, nil
		},
		subscribeNats: func(ctx context.Context, url string, handler pktNats.EventHandler) error {
			return handler(ctx, events.BaseEvent{
				Type:       events.TypeDocumentsIngested,
				Data:       map[string]interface{}{"files": []string{"a.pdf"}, "chunks": 3},
				OccurredAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			})
		},
		newLogger: func(bool) logger.ILogger { return logger.NewNopLogger() },
	}
}

func run(t *testing.T, d *deps, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(d)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestIngestCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "camry.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	rag := &stubRag{}
	out, err := run(t, testDeps(rag, ""), "ingest", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 4 chunks from 1 file(s)")
	require.Len(t, rag.ingested, 1)
	assert.Equal(t, "camry.pdf", rag.ingested[0].Name)

	out, err = run(t, testDeps(rag, ""), "ingest", "--json", path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ingested_count":4,"files":["camry.pdf"]}`, out)

	_, err = run(t, testDeps(rag, ""), "ingest", filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)
}

func TestQueryCommand(t *testing.T) {
	rag := &stubRag{}
	out, err := run(t, testDeps(rag, ""), "query", "-k", "2", "--make", "Toyota", "--model", "Camry", "--year", "2018", "rough", "idle")
	require.NoError(t, err)

	assert.Equal(t, "rough idle", *rag.query.Query)
	assert.Equal(t, 2, *rag.query.TopK)
	require.NotNil(t, rag.query.Vehicle)
	assert.Equal(t, 2018, *rag.query.Vehicle.Year)

	assert.Contains(t, out, "Replace the coil pack.")
	assert.Contains(t, out, "1. Inspect spark plugs")
	assert.Contains(t, out, "[1] camry.pdf p.7")
	assert.Contains(t, out, "Coil pack removal")

	_, err = run(t, testDeps(rag, ""), "query", "--top-k", "11", "noise")
	assert.Error(t, err)
}

func TestQueryCommandWithoutVehicle(t *testing.T) {
	rag := &stubRag{}
	_, err := run(t, testDeps(rag, ""), "query", "noise")
	require.NoError(t, err)
	assert.Nil(t, rag.query.Vehicle)
	assert.Equal(t, dto.DefaultTopK, *rag.query.TopK)
}

func TestWatchCommand(t *testing.T) {
	_, err := run(t, testDeps(&stubRag{}, ""), "watch")
	assert.EqualError(t, err, "NATS_URL is not set")

	out, err := run(t, testDeps(&stubRag{}, "nats://localhost:4222"), "watch")
	require.NoError(t, err)
	assert.Contains(t, out, "DOCUMENTS_INGESTED chunks=3 files=[\"a.pdf\"]")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b", snippet(" a \n b ", 10))
	assert.Equal(t, "abc...", snippet("abcdef", 3))
}
