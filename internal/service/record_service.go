package service

import (
	"context"
	"fmt"
	"strings"

	"vehicle-rag-be/internal/config"
	"vehicle-rag-be/internal/dto"
	"vehicle-rag-be/internal/entity"
	"vehicle-rag-be/internal/pkg/apperror"
	"vehicle-rag-be/internal/repository/specification"
	"vehicle-rag-be/internal/repository/unitofwork"
)

type IRecordService interface {
	Create(ctx context.Context, req *dto.CreateRecordRequest) (*dto.RecordResponse, error)
	Show(ctx context.Context, id uint) (*dto.RecordResponse, error)
	List(ctx context.Context, req *dto.ListRecordRequest) ([]*dto.RecordResponse, error)
	// Count ignores paging; it honours the search filter only.
	Count(ctx context.Context, req *dto.ListRecordRequest) (int64, error)
	Update(ctx context.Context, req *dto.UpdateRecordRequest) (*dto.RecordResponse, error)
	Delete(ctx context.Context, id uint) (*dto.DeleteRecordResponse, error)
}

type recordService struct {
	uowFactory unitofwork.RepositoryFactory
	pageCfg    config.RecordsConfig
}

func NewRecordService(uowFactory unitofwork.RepositoryFactory, pageCfg config.RecordsConfig) IRecordService {
	if pageCfg.DefaultPageSize <= 0 {
		pageCfg.DefaultPageSize = 20
	}
	if pageCfg.MaxPageSize < pageCfg.DefaultPageSize {
		pageCfg.MaxPageSize = pageCfg.DefaultPageSize
	}
	return &recordService{uowFactory: uowFactory, pageCfg: pageCfg}
}

func recordNotFound(id uint) error {
	return apperror.NotFound(fmt.Sprintf("blog id %d not found", id))
}

func toRecordResponse(r *entity.Record) *dto.RecordResponse {
	return &dto.RecordResponse{
		Id:        r.Id,
		Title:     r.Title,
		Body:      r.Body,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (s *recordService) Create(ctx context.Context, req *dto.CreateRecordRequest) (*dto.RecordResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	record := &entity.Record{}
	if req.Title != nil {
		record.Title = *req.Title
	}
	if req.Body != nil {
		record.Body = *req.Body
	}

	if err := uow.RecordRepository().Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return toRecordResponse(record), nil
}

func (s *recordService) Show(ctx context.Context, id uint) (*dto.RecordResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	record, err := uow.RecordRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, recordNotFound(id)
	}
	return toRecordResponse(record), nil
}

func (s *recordService) List(ctx context.Context, req *dto.ListRecordRequest) ([]*dto.RecordResponse, error) {
	limit, offset := s.page(req)
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := append(searchSpecs(req),
		specification.OrderBy{Field: "id"},
		specification.Pagination{Limit: limit, Offset: offset},
	)

	records, err := uow.RecordRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.RecordResponse, 0, len(records))
	for _, r := range records {
		res = append(res, toRecordResponse(r))
	}
	return res, nil
}

func (s *recordService) Count(ctx context.Context, req *dto.ListRecordRequest) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.RecordRepository().Count(ctx, searchSpecs(req)...)
}

func searchSpecs(req *dto.ListRecordRequest) []specification.Specification {
	specs := []specification.Specification{}
	if req != nil && strings.TrimSpace(req.Query) != "" {
		specs = append(specs, specification.RecordSearchQuery{Query: strings.TrimSpace(req.Query)})
	}
	return specs
}

func (s *recordService) page(req *dto.ListRecordRequest) (limit, offset int) {
	if req != nil {
		limit, offset = req.Limit, req.Offset
	}
	if limit <= 0 {
		limit = s.pageCfg.DefaultPageSize
	}
	if limit > s.pageCfg.MaxPageSize {
		limit = s.pageCfg.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *recordService) Update(ctx context.Context, req *dto.UpdateRecordRequest) (*dto.RecordResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	record, err := uow.RecordRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, recordNotFound(req.Id)
	}

	if req.Title != nil {
		record.Title = *req.Title
	}
	if req.Body != nil {
		record.Body = *req.Body
	}

	if err := uow.RecordRepository().Update(ctx, record); err != nil {
		return nil, fmt.Errorf("update record %d: %w", req.Id, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return toRecordResponse(record), nil
}

func (s *recordService) Delete(ctx context.Context, id uint) (*dto.DeleteRecordResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	record, err := uow.RecordRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, recordNotFound(id)
	}

	if err := uow.RecordRepository().Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete record %d: %w", id, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return &dto.DeleteRecordResponse{
		Status:  "success",
		Message: fmt.Sprintf("Blog %d deleted", id),
	}, nil
}
