package contract

import "vehicle-rag-be/internal/entity"

// VehicleDataRepository is read only; it is loaded once at startup.
type VehicleDataRepository interface {
	FindDiagnosticCode(code string) (*entity.DiagnosticCode, bool)
	FindVehicle(vehicleMake, model string, year int) (*entity.VehicleInfo, bool)
	DiagnosticCodeCount() int
	VehicleCount() int
}
