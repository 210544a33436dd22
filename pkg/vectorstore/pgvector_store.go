package vectorstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const pgvectorTable = "document_chunks"

// DocumentChunk is one row of document_chunks. It is exported so GORM can
// scan it as an embedded struct of a search result.
type DocumentChunk struct {
	Seq        int64             `gorm:"column:seq;primaryKey;autoIncrement"`
	Id         string            `gorm:"column:id;type:text;uniqueIndex;not null"`
	Collection string            `gorm:"column:collection;type:text;index;not null"`
	Text       string            `gorm:"column:text;type:text;not null"`
	Source     string            `gorm:"column:source;type:text;not null"`
	Page       *int              `gorm:"column:page"`
	Metadata   datatypes.JSONMap `gorm:"column:metadata;type:jsonb"`
	Embedding  pgvector.Vector   `gorm:"column:embedding"`
}

func (DocumentChunk) TableName() string {
	return pgvectorTable
}

type scoredDocumentChunk struct {
	DocumentChunk
	Distance float64 `gorm:"column:distance"`
}

// PgvectorStore keeps chunks in the records database. Several collections
// may share the table; rows are scoped by the collection column.
type PgvectorStore struct {
	db         *gorm.DB
	collection string
	dims       int
}

var _ Backend = (*PgvectorStore)(nil)

func OpenPgvector(ctx context.Context, db *gorm.DB, collection string, dims int) (*PgvectorStore, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("vectorstore: dimension must be positive, got %d", dims)
	}
	s := &PgvectorStore{db: db, collection: collection, dims: dims}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PgvectorStore) migrate(ctx context.Context) error {
	tx := s.db.WithContext(ctx)
	if err := tx.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("vectorstore: enable pgvector: %w", err)
	}

	ddl := `CREATE TABLE IF NOT EXISTS ` + pgvectorTable + ` (
		seq        BIGSERIAL PRIMARY KEY,
		id         TEXT NOT NULL UNIQUE,
		collection TEXT NOT NULL,
		text       TEXT NOT NULL,
		source     TEXT NOT NULL,
		page       INTEGER,
		metadata   JSONB,
		embedding  vector(` + strconv.Itoa(s.dims) + `) NOT NULL
	)`
	if err := tx.Exec(ddl).Error; err != nil {
		return fmt.Errorf("vectorstore: create %s: %w", pgvectorTable, err)
	}
	if err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_document_chunks_collection ON " + pgvectorTable + " (collection)").Error; err != nil {
		return fmt.Errorf("vectorstore: index %s: %w", pgvectorTable, err)
	}

	// atttypmod of a vector column is its dimension
	var stored int
	err := tx.Raw(
		"SELECT atttypmod FROM pg_attribute WHERE attrelid = ?::regclass AND attname = 'embedding'",
		pgvectorTable,
	).Scan(&stored).Error
	if err != nil {
		return fmt.Errorf("vectorstore: read dimension: %w", err)
	}
	if stored != s.dims {
		return fmt.Errorf("%w: %s holds %d-d vectors, embedder produces %d",
			ErrDimensionMismatch, pgvectorTable, stored, s.dims)
	}
	return nil
}

func (s *PgvectorStore) Add(ctx context.Context, chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("vectorstore: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if err := checkVectors(vectors, s.dims); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	rows := make([]*DocumentChunk, len(chunks))
	for i, ch := range chunks {
		rows[i] = &DocumentChunk{
			Id:         ch.ID,
			Collection: s.collection,
			Text:       ch.Text,
			Source:     ch.Source,
			Page:       ch.Page,
			Metadata:   toJSONMap(ch.Metadata),
			Embedding:  pgvector.NewVector(vectors[i]),
		}
	}

	if err := s.db.WithContext(ctx).Create(rows).Error; err != nil {
		return fmt.Errorf("vectorstore: insert %d chunks: %w", len(rows), err)
	}
	return nil
}

func (s *PgvectorStore) Search(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return []ScoredChunk{}, nil
	}
	if len(vector) != s.dims {
		return nil, fmt.Errorf("%w: query has %d, store has %d", ErrDimensionMismatch, len(vector), s.dims)
	}

	var results []scoredDocumentChunk
	err := s.db.WithContext(ctx).
		Table(pgvectorTable).
		Select(pgvectorTable+".*, embedding <-> ? AS distance", pgvector.NewVector(vector)).
		Where("collection = ?", s.collection).
		Order("distance, seq").
		Limit(k).
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search: %w", err)
	}

	out := make([]ScoredChunk, len(results))
	for i, r := range results {
		out[i] = ScoredChunk{
			Chunk: Chunk{
				ID:       r.Id,
				Text:     r.Text,
				Source:   r.Source,
				Page:     r.Page,
				Metadata: fromJSONMap(r.Metadata),
			},
			Score: r.Distance,
		}
	}
	return out, nil
}

func (s *PgvectorStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&DocumentChunk{}).Where("collection = ?", s.collection).Count(&count).Error
	return count, err
}

// Persist is a no-op: rows are durable once their insert commits.
func (s *PgvectorStore) Persist(ctx context.Context) error { return nil }

func (s *PgvectorStore) Dimensions() int { return s.dims }

// Close leaves the shared *gorm.DB open; its owner closes it.
func (s *PgvectorStore) Close() error { return nil }

func toJSONMap(meta map[string]string) datatypes.JSONMap {
	if len(meta) == 0 {
		return nil
	}
	out := make(datatypes.JSONMap, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}

func fromJSONMap(meta datatypes.JSONMap) map[string]string {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = fmt.Sprint(v)
	}
	return out
}
