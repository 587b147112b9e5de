package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tendant/dealer-crm/pkg/domain"
	"github.com/tendant/dealer-crm/pkg/guard"
)

type fakeCompanyLoader struct {
	companies map[uuid.UUID]*domain.Company
}

func (f *fakeCompanyLoader) GetByID(_ context.Context, id uuid.UUID) (*domain.Company, error) {
	c, ok := f.companies[id]
	if !ok {
		return nil, domain.ErrCompanyNotFound
	}
	return c, nil
}

type fakeVehicleStore struct {
	vehicles map[uuid.UUID]*domain.Vehicle
}

func newFakeVehicleStore() *fakeVehicleStore {
	return &fakeVehicleStore{vehicles: map[uuid.UUID]*domain.Vehicle{}}
}

func (f *fakeVehicleStore) Create(_ context.Context, v *domain.Vehicle) error {
	f.vehicles[v.ID] = v
	return nil
}

func (f *fakeVehicleStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return nil, domain.ErrVehicleNotFound
	}
	return v, nil
}

func (f *fakeVehicleStore) Update(_ context.Context, v *domain.Vehicle) error {
	if _, ok := f.vehicles[v.ID]; !ok {
		return domain.ErrVehicleNotFound
	}
	f.vehicles[v.ID] = v
	return nil
}

func (f *fakeVehicleStore) ListByCompany(_ context.Context, companyID uuid.UUID) ([]*domain.Vehicle, error) {
	var out []*domain.Vehicle
	for _, v := range f.vehicles {
		if v.CompanyID == companyID {
			out = append(out, v)
		}
	}
	return out, nil
}

func newTestService(status domain.CompanyStatus) (*Service, *fakeVehicleStore, *domain.Company) {
	c := &domain.Company{ID: uuid.New(), Name: "Test Company", Status: status}
	store := newFakeVehicleStore()
	g := guard.New(&fakeCompanyLoader{companies: map[uuid.UUID]*domain.Company{c.ID: c}})
	return NewService(store, g), store, c
}

func TestCreate_ActiveCompany(t *testing.T) {
	svc, store, c := newTestService(domain.CompanyStatusActive)

	vehicle := &domain.Vehicle{
		CompanyID: c.ID,
		Make:      "VW",
		Model:     "Golf",
		Year:      2019,
		PriceEUR:  decimal.NewFromInt(15900),
	}
	if err := svc.Create(context.Background(), vehicle, SaveOpts{}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if vehicle.ID == uuid.Nil {
		t.Error("ID not assigned")
	}
	if vehicle.Status != domain.VehicleStatusAvailable {
		t.Errorf("Status = %s, want %s", vehicle.Status, domain.VehicleStatusAvailable)
	}
	if len(store.vehicles) != 1 {
		t.Errorf("stored vehicles = %d, want 1", len(store.vehicles))
	}
}

func TestCreate_PendingCompanyBlocked(t *testing.T) {
	svc, store, c := newTestService(domain.CompanyStatusPending)

	err := svc.Create(context.Background(), &domain.Vehicle{CompanyID: c.ID, Make: "VW", Model: "Golf"}, SaveOpts{})
	var nerr *domain.CompanyNotActiveError
	if !errors.As(err, &nerr) {
		t.Fatalf("error = %v, want *CompanyNotActiveError", err)
	}
	if len(store.vehicles) != 0 {
		t.Error("nothing should be persisted when the guard blocks")
	}
}

func TestCreate_Bypass(t *testing.T) {
	svc, store, c := newTestService(domain.CompanyStatusSuspended)

	err := svc.Create(context.Background(), &domain.Vehicle{CompanyID: c.ID, Make: "VW", Model: "Golf"}, SaveOpts{Bypass: true})
	if err != nil {
		t.Fatalf("Create with bypass: %v", err)
	}
	if len(store.vehicles) != 1 {
		t.Error("bypass write should be persisted")
	}
}

func TestCreate_MissingMakeModel(t *testing.T) {
	svc, _, c := newTestService(domain.CompanyStatusActive)

	err := svc.Create(context.Background(), &domain.Vehicle{CompanyID: c.ID, Make: "VW"}, SaveOpts{})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

func TestUpdate_SuspendedCompanyBlocked(t *testing.T) {
	svc, _, c := newTestService(domain.CompanyStatusActive)

	vehicle := &domain.Vehicle{CompanyID: c.ID, Make: "VW", Model: "Golf"}
	if err := svc.Create(context.Background(), vehicle, SaveOpts{}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The company is suspended after the vehicle was created; the next
	// update must be blocked because the guard reloads fresh state.
	c.Suspend()

	vehicle.Status = domain.VehicleStatusSold
	err := svc.Update(context.Background(), vehicle, SaveOpts{})
	var nerr *domain.CompanyNotActiveError
	if !errors.As(err, &nerr) {
		t.Fatalf("error = %v, want *CompanyNotActiveError", err)
	}
}
