package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"vehicle-rag-be/internal/entity"
	"vehicle-rag-be/internal/repository/contract"
	"vehicle-rag-be/internal/repository/specification"
	"vehicle-rag-be/internal/repository/unitofwork"
)

// fakeRecordStore is an in-memory records table shared by every unit of work.
type fakeRecordStore struct {
	rows    map[uint]entity.Record
	nextID  uint
	commits int
	rolls   int
	findErr error
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{rows: make(map[uint]entity.Record), nextID: 1}
}

func (s *fakeRecordStore) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{store: s}
}

type fakeUnitOfWork struct {
	store   *fakeRecordStore
	began   bool
	pending []func()
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	if u.began {
		return errors.New("transaction already started")
	}
	u.began = true
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	if !u.began {
		return errors.New("no transaction")
	}
	for _, apply := range u.pending {
		apply()
	}
	u.pending = nil
	u.began = false
	u.store.commits++
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	if !u.began {
		return errors.New("no transaction")
	}
	u.pending = nil
	u.began = false
	u.store.rolls++
	return nil
}

func (u *fakeUnitOfWork) RecordRepository() contract.RecordRepository {
	return &fakeRecordRepository{uow: u}
}

type fakeRecordRepository struct {
	uow *fakeUnitOfWork
}

func (r *fakeRecordRepository) write(apply func()) {
	if r.uow.began {
		r.uow.pending = append(r.uow.pending, apply)
		return
	}
	apply()
}

func (r *fakeRecordRepository) Create(ctx context.Context, record *entity.Record) error {
	s := r.uow.store
	record.Id = s.nextID
	s.nextID++
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	row := *record
	r.write(func() { s.rows[row.Id] = row })
	return nil
}

func (r *fakeRecordRepository) Update(ctx context.Context, record *entity.Record) error {
	record.UpdatedAt = time.Now()
	row := *record
	r.write(func() { r.uow.store.rows[row.Id] = row })
	return nil
}

func (r *fakeRecordRepository) Delete(ctx context.Context, id uint) error {
	r.write(func() { delete(r.uow.store.rows, id) })
	return nil
}

func (r *fakeRecordRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Record, error) {
	if r.uow.store.findErr != nil {
		return nil, r.uow.store.findErr
	}
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			row, found := r.uow.store.rows[byID.ID]
			if !found {
				return nil, nil
			}
			return &row, nil
		}
	}
	return nil, nil
}

func (r *fakeRecordRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Record, error) {
	matched := r.match(specs)
	limit, offset := len(matched), 0
	for _, spec := range specs {
		if sp, ok := spec.(specification.Pagination); ok {
			limit, offset = sp.Limit, sp.Offset
		}
	}

	out := []*entity.Record{}
	for i := offset; i < len(matched) && len(out) < limit; i++ {
		row := matched[i]
		out = append(out, &row)
	}
	return out, nil
}

func (r *fakeRecordRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.match(specs))), nil
}

// match returns rows passing the search filter, ordered by id.
func (r *fakeRecordRepository) match(specs []specification.Specification) []entity.Record {
	ids := make([]uint, 0, len(r.uow.store.rows))
	for id := range r.uow.store.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	search := ""
	for _, spec := range specs {
		if sp, ok := spec.(specification.RecordSearchQuery); ok {
			search = strings.ToLower(sp.Query)
		}
	}

	var matched []entity.Record
	for _, id := range ids {
		row := r.uow.store.rows[id]
		if search != "" &&
			!strings.Contains(strings.ToLower(row.Title), search) &&
			!strings.Contains(strings.ToLower(row.Body), search) {
			continue
		}
		matched = append(matched, row)
	}
	return matched
}

// fakeVehicleData is a fixed lookup store.
type fakeVehicleData struct{}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func (fakeVehicleData) FindDiagnosticCode(code string) (*entity.DiagnosticCode, bool) {
	if code != "P0300" && code != "p0300" {
		return nil, false
	}
	return &entity.DiagnosticCode{
		Code:                 "P0300",
		Name:                 "Random/Multiple Cylinder Misfire Detected",
		Symptoms:             []string{"Rough idle"},
		PossibleCauses:       []string{"Worn spark plugs"},
		TroubleshootingSteps: []string{"Scan for additional codes", "Inspect spark plugs"},
	}, true
}

func (fakeVehicleData) FindVehicle(vehicleMake, model string, year int) (*entity.VehicleInfo, bool) {
	if vehicleMake != "Toyota" || model != "Camry" || year != 2018 {
		return nil, false
	}
	return &entity.VehicleInfo{
		Make:         "Toyota",
		Model:        "Camry",
		Year:         2018,
		Engine:       strPtr("2.5L I4"),
		Transmission: strPtr("8-speed automatic"),
	}, true
}

func (fakeVehicleData) DiagnosticCodeCount() int { return 1 }
func (fakeVehicleData) VehicleCount() int        { return 1 }
