package unitofwork

import (
	"context"
	"errors"
	"testing"

	"vehicle-rag-be/internal/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newFactory(t *testing.T) (RepositoryFactory, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return NewRepositoryFactory(db), mock
}

func TestUnitOfWork_Commit(t *testing.T) {
	factory, mock := newFactory(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "records"`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	uow := factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.RecordRepository().Create(ctx, &entity.Record{Title: "t", Body: "b"}))
	require.NoError(t, uow.Commit())

	assert.Error(t, uow.Commit(), "second commit has no transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_Rollback(t *testing.T) {
	factory, mock := newFactory(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "records"`).WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	uow := factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	assert.Error(t, uow.Begin(ctx), "nested begin is rejected")
	assert.Error(t, uow.RecordRepository().Create(ctx, &entity.Record{Title: "t", Body: "b"}))
	require.NoError(t, uow.Rollback())

	assert.NoError(t, mock.ExpectationsWereMet())
}
