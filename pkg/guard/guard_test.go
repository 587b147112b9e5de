package guard

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/tendant/dealer-crm/pkg/domain"
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

func TestRequireActive(t *testing.T) {
	tests := []struct {
		status  domain.CompanyStatus
		blocked bool
	}{
		{domain.CompanyStatusPending, true},
		{domain.CompanyStatusActive, false},
		{domain.CompanyStatusRejected, true},
		{domain.CompanyStatusSuspended, true},
	}

	for _, tt := range tests {
		err := RequireActive(&domain.Company{ID: uuid.New(), Status: tt.status})
		if tt.blocked && err == nil {
			t.Errorf("status %s: expected error, got nil", tt.status)
		}
		if !tt.blocked && err != nil {
			t.Errorf("status %s: unexpected error %v", tt.status, err)
		}
		if tt.blocked {
			var nerr *domain.CompanyNotActiveError
			if !errors.As(err, &nerr) {
				t.Errorf("status %s: error type = %T, want *CompanyNotActiveError", tt.status, err)
			} else if nerr.Status != tt.status {
				t.Errorf("status in error = %s, want %s", nerr.Status, tt.status)
			}
		}
	}
}

func TestGuard_Check(t *testing.T) {
	active := &domain.Company{ID: uuid.New(), Status: domain.CompanyStatusActive}
	pending := &domain.Company{ID: uuid.New(), Status: domain.CompanyStatusPending}
	loader := &fakeCompanyLoader{companies: map[uuid.UUID]*domain.Company{
		active.ID:  active,
		pending.ID: pending,
	}}
	g := New(loader)

	if err := g.Check(context.Background(), &domain.Vehicle{CompanyID: active.ID}, false); err != nil {
		t.Errorf("active company: unexpected error %v", err)
	}

	err := g.Check(context.Background(), &domain.Vehicle{CompanyID: pending.ID}, false)
	var nerr *domain.CompanyNotActiveError
	if !errors.As(err, &nerr) {
		t.Fatalf("pending company: error = %v, want *CompanyNotActiveError", err)
	}
}

func TestGuard_Check_Bypass(t *testing.T) {
	pending := &domain.Company{ID: uuid.New(), Status: domain.CompanyStatusPending}
	g := New(&fakeCompanyLoader{companies: map[uuid.UUID]*domain.Company{pending.ID: pending}})

	if err := g.Check(context.Background(), &domain.Lead{CompanyID: pending.ID}, true); err != nil {
		t.Errorf("bypass should skip the check, got %v", err)
	}
}

func TestGuard_Check_NilCompanyRef(t *testing.T) {
	g := New(&fakeCompanyLoader{companies: map[uuid.UUID]*domain.Company{}})

	// A resource with no owning company passes; there is nothing to check.
	if err := g.Check(context.Background(), &domain.Lead{}, false); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

// The guard reloads the company on every check, so a suspension that landed
// after the resource was read still blocks the write.
func TestGuard_Check_ReloadsFreshState(t *testing.T) {
	c := &domain.Company{ID: uuid.New(), Status: domain.CompanyStatusActive}
	loader := &fakeCompanyLoader{companies: map[uuid.UUID]*domain.Company{c.ID: c}}
	g := New(loader)

	vehicle := &domain.Vehicle{CompanyID: c.ID}
	if err := g.Check(context.Background(), vehicle, false); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	c.Suspend()

	if err := g.Check(context.Background(), vehicle, false); err == nil {
		t.Error("expected error after suspension, got nil")
	}
}
