package unitofwork

import (
	"context"

	"vehicle-rag-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	RecordRepository() contract.RecordRepository
}
