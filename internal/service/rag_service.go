package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"vehicle-rag-be/internal/dto"
	"vehicle-rag-be/internal/pkg/apperror"
	"vehicle-rag-be/internal/pkg/logger"
	"vehicle-rag-be/internal/repository/contract"
	"vehicle-rag-be/pkg/events"
	"vehicle-rag-be/pkg/pdf"
	"vehicle-rag-be/pkg/rag/prompt"
	"vehicle-rag-be/pkg/rag/response"
	"vehicle-rag-be/pkg/utils"
	"vehicle-rag-be/pkg/vectorstore"
)

var diagnosticCodePattern = regexp.MustCompile(`\b[PBCU][0-9]{4}\b`)

// VectorCollection is the part of vectorstore.Collection the orchestrator needs.
type VectorCollection interface {
	Add(ctx context.Context, chunks []vectorstore.Chunk) error
	Search(ctx context.Context, query string, k int) ([]vectorstore.ScoredChunk, error)
	Persist(ctx context.Context) error
}

type IRagService interface {
	Ingest(ctx context.Context, files []dto.UploadedFile) (int, error)
	Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error)
}

type ragService struct {
	extractor   pdf.Extractor
	splitter    *utils.RecursiveTextSplitter
	collection  VectorCollection
	generator   *response.Generator
	vehicleData contract.VehicleDataRepository
	publisher   events.Publisher
	logger      logger.ILogger
}

// NewRagService accepts a nil publisher; ingestions are then not announced.
func NewRagService(
	extractor pdf.Extractor,
	splitter *utils.RecursiveTextSplitter,
	collection VectorCollection,
	generator *response.Generator,
	vehicleData contract.VehicleDataRepository,
	publisher events.Publisher,
	logger logger.ILogger,
) IRagService {
	return &ragService{
		extractor:   extractor,
		splitter:    splitter,
		collection:  collection,
		generator:   generator,
		vehicleData: vehicleData,
		publisher:   publisher,
		logger:      logger,
	}
}

const ingestFailed = "Failed to ingest documents"

// storeFailure tags embedding backend failures as Upstream and everything
// else as Internal. Both surface as 500 with the cause in the detail.
func storeFailure(message string, err error) error {
	var embedErr *vectorstore.EmbeddingError
	if errors.As(err, &embedErr) {
		return apperror.Upstream(message, err)
	}
	return apperror.Internal(message, err)
}

func (s *ragService) Ingest(ctx context.Context, files []dto.UploadedFile) (int, error) {
	var chunks []vectorstore.Chunk
	names := make([]string, 0, len(files))
	for _, f := range files {
		fileChunks, err := s.fileToChunks(ctx, f)
		if err != nil {
			return 0, apperror.Internal(ingestFailed, err)
		}
		chunks = append(chunks, fileChunks...)
		names = append(names, f.Name)
	}

	if len(chunks) == 0 {
		s.logger.Info("RAG", "Nothing to ingest", map[string]interface{}{"files": names})
		return 0, nil
	}

	if err := s.collection.Add(ctx, chunks); err != nil {
		return 0, storeFailure(ingestFailed, err)
	}
	if err := s.collection.Persist(ctx); err != nil {
		return 0, storeFailure(ingestFailed, err)
	}

	s.logger.Info("RAG", "Documents ingested", map[string]interface{}{
		"files":  names,
		"chunks": len(chunks),
	})
	s.announce(ctx, names, len(chunks))
	return len(chunks), nil
}

// fileToChunks never fails on bad PDF content: an unreadable file becomes one
// empty placeholder chunk and an unreadable page contributes nothing.
func (s *ragService) fileToChunks(ctx context.Context, f dto.UploadedFile) ([]vectorstore.Chunk, error) {
	doc, err := s.extractor.Extract(ctx, f.Content)
	if err != nil {
		if !errors.Is(err, pdf.ErrUnreadable) {
			return nil, err
		}
		s.logger.Warn("RAG", "Unreadable PDF stored as placeholder", map[string]interface{}{
			"file":  f.Name,
			"error": err.Error(),
		})
		return []vectorstore.Chunk{{
			Source:   f.Name,
			Metadata: map[string]string{"source": f.Name},
		}}, nil
	}

	var chunks []vectorstore.Chunk
	for _, page := range doc.Pages {
		if page.Err != nil {
			s.logger.Debug("RAG", "Skipping unreadable page", map[string]interface{}{
				"file":  f.Name,
				"page":  page.Number,
				"error": page.Err.Error(),
			})
			continue
		}
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		for _, text := range s.splitter.Split(page.Text) {
			number := page.Number
			chunks = append(chunks, vectorstore.Chunk{
				Text:   text,
				Source: f.Name,
				Page:   &number,
				Metadata: map[string]string{
					"source": f.Name,
					"page":   strconv.Itoa(number),
				},
			})
		}
	}
	return chunks, nil
}

func (s *ragService) announce(ctx context.Context, files []string, chunks int) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewDocumentsIngested(files, chunks)); err != nil {
		s.logger.Warn("RAG", "Failed to publish ingest event", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *ragService) Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	question := ""
	if req.Query != nil {
		question = strings.TrimSpace(*req.Query)
	}
	if question == "" {
		return nil, apperror.Validation("Query text is required")
	}

	topK := dto.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	results, err := s.collection.Search(ctx, question, topK)
	if err != nil {
		return nil, storeFailure("Query failed", err)
	}

	sources := make([]dto.SourceResponse, 0, len(results))
	for _, r := range results {
		sources = append(sources, dto.SourceResponse{
			Text:   r.Text,
			Source: r.Source,
			Page:   r.Page,
			Score:  r.Score,
		})
	}

	answer := s.generator.Generate(ctx, question, s.vehicleContext(req.Vehicle), results)

	return &dto.QueryResponse{
		Answer:           answer,
		Sources:          sources,
		SuggestedActions: s.suggestedActions(question),
	}, nil
}

// vehicleContext adds engine and transmission when the vehicle is in the dataset.
func (s *ragService) vehicleContext(v *dto.QueryVehicleContext) *prompt.VehicleContext {
	if v == nil {
		return nil
	}
	vc := &prompt.VehicleContext{Year: v.Year}
	if v.Make != nil {
		vc.Make = *v.Make
	}
	if v.Model != nil {
		vc.Model = *v.Model
	}

	if s.vehicleData != nil && v.Year != nil {
		if info, ok := s.vehicleData.FindVehicle(vc.Make, vc.Model, *v.Year); ok {
			if info.Engine != nil {
				vc.Engine = *info.Engine
			}
			if info.Transmission != nil {
				vc.Transmission = *info.Transmission
			}
		}
	}
	return vc
}

// suggestedActions collects troubleshooting steps for known codes named in the question.
func (s *ragService) suggestedActions(question string) []string {
	if s.vehicleData == nil {
		return nil
	}
	var actions []string
	seen := make(map[string]bool)
	for _, code := range diagnosticCodePattern.FindAllString(strings.ToUpper(question), -1) {
		if seen[code] {
			continue
		}
		seen[code] = true
		dc, ok := s.vehicleData.FindDiagnosticCode(code)
		if !ok {
			continue
		}
		actions = append(actions, dc.TroubleshootingSteps...)
	}
	return actions
}
