package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

const sqliteFileName = "vectors.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS collection_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	id        TEXT NOT NULL UNIQUE,
	text      TEXT NOT NULL,
	source    TEXT NOT NULL,
	page      INTEGER,
	metadata  TEXT,
	embedding BLOB NOT NULL
);`

// SQLiteStore keeps chunks in <dir>/vectors.db and answers queries with an
// exact scan. One connection serialises every reader and writer.
type SQLiteStore struct {
	db   *sql.DB
	path string
	dims int
}

var _ Backend = (*SQLiteStore)(nil)

// OpenSQLite creates dir if needed and opens (or initialises) the store.
// A store created with another dimension fails with ErrDimensionMismatch.
func OpenSQLite(ctx context.Context, dir string, dims int) (*SQLiteStore, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("vectorstore: dimension must be positive, got %d", dims)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("vectorstore: create dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, sqliteFileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path, dims: dims}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init(ctx context.Context) error {
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("vectorstore: %s: %w", pragma, err)
		}
	}
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("vectorstore: create schema: %w", err)
	}

	var stored string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM collection_meta WHERE key = 'dimensions'`).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx, `INSERT INTO collection_meta (key, value) VALUES ('dimensions', ?)`, strconv.Itoa(s.dims))
		if err != nil {
			return fmt.Errorf("vectorstore: record dimension: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("vectorstore: read dimension: %w", err)
	}

	if stored != strconv.Itoa(s.dims) {
		return fmt.Errorf("%w: %s holds %s-d vectors, embedder produces %d",
			ErrDimensionMismatch, s.path, stored, s.dims)
	}
	return nil
}

func (s *SQLiteStore) Add(ctx context.Context, chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("vectorstore: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if err := checkVectors(vectors, s.dims); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("vectorstore: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, text, source, page, metadata, embedding) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("vectorstore: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, ch := range chunks {
		meta, err := encodeMetadata(ch.Metadata)
		if err != nil {
			return err
		}
		var page sql.NullInt64
		if ch.Page != nil {
			page = sql.NullInt64{Int64: int64(*ch.Page), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, ch.ID, ch.Text, ch.Source, page, meta, EncodeEmbedding(vectors[i])); err != nil {
			return fmt.Errorf("vectorstore: insert chunk %s: %w", ch.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("vectorstore: commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Search(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return []ScoredChunk{}, nil
	}
	if len(vector) != s.dims {
		return nil, fmt.Errorf("%w: query has %d, store has %d", ErrDimensionMismatch, len(vector), s.dims)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, text, source, page, metadata, embedding FROM chunks ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: scan chunks: %w", err)
	}
	defer rows.Close()

	scored := make([]ScoredChunk, 0)
	for rows.Next() {
		var (
			ch   Chunk
			page sql.NullInt64
			meta sql.NullString
			blob []byte
		)
		if err := rows.Scan(&ch.ID, &ch.Text, &ch.Source, &page, &meta, &blob); err != nil {
			return nil, fmt.Errorf("vectorstore: read chunk: %w", err)
		}
		if page.Valid {
			p := int(page.Int64)
			ch.Page = &p
		}
		if ch.Metadata, err = decodeMetadata(meta.String); err != nil {
			return nil, err
		}
		emb, err := DecodeEmbedding(blob)
		if err != nil {
			return nil, err
		}
		scored = append(scored, ScoredChunk{Chunk: ch, Score: L2Distance(vector, emb)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vectorstore: iterate chunks: %w", err)
	}

	return topK(scored, k), nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("vectorstore: count: %w", err)
	}
	return n, nil
}

// Persist folds the write-ahead log back into the main database file.
func (s *SQLiteStore) Persist(ctx context.Context) error {
	var busy, logFrames, checkpointed int
	err := s.db.QueryRowContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`).Scan(&busy, &logFrames, &checkpointed)
	if err != nil {
		return fmt.Errorf("vectorstore: checkpoint: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Dimensions() int { return s.dims }

func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func encodeMetadata(meta map[string]string) (sql.NullString, error) {
	if len(meta) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("vectorstore: encode metadata: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeMetadata(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("vectorstore: decode metadata: %w", err)
	}
	return meta, nil
}
