package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vehicle-rag-be/internal/entity"
	"vehicle-rag-be/internal/pkg/logger"
	"vehicle-rag-be/internal/repository/contract"
)

const (
	DiagnosticCodesFile = "diagnostic_codes.json"
	VehicleSpecsFile    = "vehicle_specs.json"
)

type diagnosticCodeRecord struct {
	Code                 *string  `json:"code"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	Symptoms             []string `json:"symptoms"`
	PossibleCauses       []string `json:"possible_causes"`
	TroubleshootingSteps []string `json:"troubleshooting_steps"`
}

type vehicleSpecRecord struct {
	Make         string            `json:"make"`
	Model        string            `json:"model"`
	Year         json.RawMessage   `json:"year"`
	Engine       *string           `json:"engine"`
	Transmission *string           `json:"transmission"`
	Specs        map[string]string `json:"specs"`
}

type vehicleKey struct {
	make  string
	model string
	year  int
}

// VehicleDataRepository serves the diagnostic code and vehicle spec datasets
// from maps built once at construction. It is safe for concurrent reads.
type VehicleDataRepository struct {
	codes    map[string]*entity.DiagnosticCode
	vehicles map[vehicleKey]*entity.VehicleInfo
}

var _ contract.VehicleDataRepository = (*VehicleDataRepository)(nil)

// NewVehicleDataRepository loads both datasets from dataDir. A missing file
// leaves its index empty; a file that cannot be read or parsed is an error.
func NewVehicleDataRepository(dataDir string, log logger.ILogger) (*VehicleDataRepository, error) {
	r := &VehicleDataRepository{
		codes:    make(map[string]*entity.DiagnosticCode),
		vehicles: make(map[vehicleKey]*entity.VehicleInfo),
	}

	var codes []diagnosticCodeRecord
	found, err := readDataset(filepath.Join(dataDir, DiagnosticCodesFile), &codes)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Warn("VEHICLE_DATA", "Dataset not found, diagnostic code lookups will miss", map[string]interface{}{"file": DiagnosticCodesFile, "dir": dataDir})
	}
	for _, rec := range codes {
		if rec.Code == nil {
			continue
		}
		r.codes[strings.ToUpper(*rec.Code)] = &entity.DiagnosticCode{
			Code:                 *rec.Code,
			Name:                 rec.Name,
			Description:          rec.Description,
			Symptoms:             nonNil(rec.Symptoms),
			PossibleCauses:       nonNil(rec.PossibleCauses),
			TroubleshootingSteps: nonNil(rec.TroubleshootingSteps),
		}
	}

	var specs []vehicleSpecRecord
	found, err = readDataset(filepath.Join(dataDir, VehicleSpecsFile), &specs)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Warn("VEHICLE_DATA", "Dataset not found, vehicle lookups will miss", map[string]interface{}{"file": VehicleSpecsFile, "dir": dataDir})
	}
	for _, rec := range specs {
		year, err := parseYear(rec.Year)
		if err != nil {
			log.Warn("VEHICLE_DATA", "Skipping vehicle with invalid year", map[string]interface{}{
				"make":  rec.Make,
				"model": rec.Model,
				"year":  string(rec.Year),
			})
			continue
		}
		key := vehicleKey{make: strings.ToLower(rec.Make), model: strings.ToLower(rec.Model), year: year}
		r.vehicles[key] = &entity.VehicleInfo{
			Make:         rec.Make,
			Model:        rec.Model,
			Year:         year,
			Engine:       rec.Engine,
			Transmission: rec.Transmission,
			Specs:        rec.Specs,
		}
	}

	log.Info("VEHICLE_DATA", "Lookup datasets loaded", map[string]interface{}{
		"diagnostic_codes": len(r.codes),
		"vehicles":         len(r.vehicles),
	})
	return r, nil
}

// FindDiagnosticCode matches case-insensitively. Empty codes miss.
func (r *VehicleDataRepository) FindDiagnosticCode(code string) (*entity.DiagnosticCode, bool) {
	if code == "" {
		return nil, false
	}
	dc, ok := r.codes[strings.ToUpper(code)]
	return dc, ok
}

// FindVehicle matches make and model case-insensitively and year exactly.
func (r *VehicleDataRepository) FindVehicle(vehicleMake, model string, year int) (*entity.VehicleInfo, bool) {
	v, ok := r.vehicles[vehicleKey{make: strings.ToLower(vehicleMake), model: strings.ToLower(model), year: year}]
	return v, ok
}

func (r *VehicleDataRepository) DiagnosticCodeCount() int { return len(r.codes) }

func (r *VehicleDataRepository) VehicleCount() int { return len(r.vehicles) }

func readDataset(path string, out interface{}) (bool, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read dataset %s: %w", path, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return true, nil
}

// parseYear accepts 2018 as well as "2018".
func parseYear(raw json.RawMessage) (int, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	return strconv.Atoi(s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
