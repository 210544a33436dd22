package vectorstore

import (
	"context"
	"fmt"

	"vehicle-rag-be/pkg/embedding"

	"gorm.io/gorm"
)

type Options struct {
	Backend    string // "sqlite", "pgvector" or "qdrant"
	Dir        string
	Collection string
	QdrantAddr string
	DB         *gorm.DB // required by pgvector
}

// Open builds the configured backend sized to the embedder and wraps it in a Collection.
func Open(ctx context.Context, opts Options, embedder embedding.Provider) (*Collection, error) {
	dims := embedder.Dimensions()

	var (
		backend Backend
		err     error
	)
	switch opts.Backend {
	case "sqlite", "":
		backend, err = OpenSQLite(ctx, opts.Dir, dims)
	case "pgvector":
		if opts.DB == nil {
			return nil, fmt.Errorf("vectorstore: pgvector backend needs a database connection")
		}
		backend, err = OpenPgvector(ctx, opts.DB, opts.Collection, dims)
	case "qdrant":
		backend, err = OpenQdrant(ctx, opts.QdrantAddr, opts.Collection, dims)
	default:
		return nil, fmt.Errorf("vectorstore: unsupported backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	collection, err := NewCollection(backend, embedder)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return collection, nil
}
