package service

import (
	"context"

	"vehicle-rag-be/internal/dto"
	"vehicle-rag-be/internal/entity"
	"vehicle-rag-be/internal/pkg/apperror"
	"vehicle-rag-be/internal/repository/contract"
)

type IVehicleDataService interface {
	GetDiagnosticCode(ctx context.Context, code string) (*dto.DiagnosticCodeResponse, error)
	GetVehicleInfo(ctx context.Context, vehicleMake, model string, year int) (*dto.VehicleInfoResponse, error)
}

type vehicleDataService struct {
	repo contract.VehicleDataRepository
}

func NewVehicleDataService(repo contract.VehicleDataRepository) IVehicleDataService {
	return &vehicleDataService{repo: repo}
}

func (s *vehicleDataService) GetDiagnosticCode(ctx context.Context, code string) (*dto.DiagnosticCodeResponse, error) {
	dc, ok := s.repo.FindDiagnosticCode(code)
	if !ok {
		return nil, apperror.NotFound("Diagnostic code not found")
	}
	return toDiagnosticCodeResponse(dc), nil
}

func (s *vehicleDataService) GetVehicleInfo(ctx context.Context, vehicleMake, model string, year int) (*dto.VehicleInfoResponse, error) {
	info, ok := s.repo.FindVehicle(vehicleMake, model, year)
	if !ok {
		return nil, apperror.NotFound("Vehicle info not found")
	}
	return &dto.VehicleInfoResponse{
		Make:         info.Make,
		Model:        info.Model,
		Year:         info.Year,
		Engine:       info.Engine,
		Transmission: info.Transmission,
		Specs:        info.Specs,
	}, nil
}

func toDiagnosticCodeResponse(dc *entity.DiagnosticCode) *dto.DiagnosticCodeResponse {
	return &dto.DiagnosticCodeResponse{
		Code:                 dc.Code,
		Name:                 dc.Name,
		Description:          dc.Description,
		Symptoms:             dc.Symptoms,
		PossibleCauses:       dc.PossibleCauses,
		TroubleshootingSteps: dc.TroubleshootingSteps,
	}
}
