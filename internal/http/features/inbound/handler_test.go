package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/tendant/dealer-crm/pkg/domain"
	"github.com/tendant/dealer-crm/pkg/guard"
	"github.com/tendant/dealer-crm/pkg/leads"
)

type fakeCompanies struct {
	company *domain.Company
}

func (f *fakeCompanies) GetByID(_ context.Context, id uuid.UUID) (*domain.Company, error) {
	if f.company != nil && f.company.ID == id {
		return f.company, nil
	}
	return nil, domain.ErrCompanyNotFound
}

func (f *fakeCompanies) GetBySlug(_ context.Context, slug string) (*domain.Company, error) {
	if f.company != nil && f.company.Slug == slug {
		return f.company, nil
	}
	return nil, domain.ErrCompanyNotFound
}

type fakeVehicles struct{}

func (f *fakeVehicles) GetByID(_ context.Context, _ uuid.UUID) (*domain.Vehicle, error) {
	return nil, domain.ErrVehicleNotFound
}

type fakeLeadStore struct {
	leads      map[uuid.UUID]*domain.Lead
	activities []*domain.Activity
}

func (f *fakeLeadStore) Create(_ context.Context, l *domain.Lead) error {
	f.leads[l.ID] = l
	return nil
}

func (f *fakeLeadStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Lead, error) {
	l, ok := f.leads[id]
	if !ok {
		return nil, domain.ErrLeadNotFound
	}
	return l, nil
}

func (f *fakeLeadStore) GetStage(_ context.Context, id uuid.UUID) (domain.LeadStage, error) {
	l, ok := f.leads[id]
	if !ok {
		return "", domain.ErrLeadNotFound
	}
	return l.Stage, nil
}

func (f *fakeLeadStore) CreateWithActivity(ctx context.Context, l *domain.Lead, a *domain.Activity) error {
	f.leads[l.ID] = l
	if a != nil {
		f.activities = append(f.activities, a)
	}
	return nil
}

func (f *fakeLeadStore) UpdateWithActivity(_ context.Context, l *domain.Lead, a *domain.Activity) error {
	f.leads[l.ID] = l
	if a != nil {
		f.activities = append(f.activities, a)
	}
	return nil
}

func (f *fakeLeadStore) ListByCompany(_ context.Context, _ uuid.UUID) ([]*domain.Lead, error) {
	return nil, nil
}

type fakeActivityStore struct {
	store *fakeLeadStore
}

func (f *fakeActivityStore) Create(_ context.Context, a *domain.Activity) error {
	f.store.activities = append(f.store.activities, a)
	return nil
}

func (f *fakeActivityStore) ListByLead(_ context.Context, leadID uuid.UUID) ([]*domain.Activity, error) {
	var out []*domain.Activity
	for _, a := range f.store.activities {
		if a.LeadID == leadID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeActivityStore) ExistsByTextMarker(_ context.Context, marker string) (bool, error) {
	for _, a := range f.store.activities {
		if strings.Contains(a.Text, marker) {
			return true, nil
		}
	}
	return false, nil
}

func newTestHandler(token string, status domain.CompanyStatus) (*Handler, *fakeLeadStore) {
	companies := &fakeCompanies{company: &domain.Company{
		ID:     uuid.New(),
		Name:   "Test Company",
		Slug:   "test-company",
		Status: status,
	}}
	store := &fakeLeadStore{leads: map[uuid.UUID]*domain.Lead{}}
	svc := leads.NewService(store, &fakeActivityStore{store: store}, &fakeVehicles{}, guard.New(companies))
	ingester := leads.NewIngester(svc, companies, &fakeVehicles{})
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return NewHandler(logger, ingester, token), store
}

func postInbound(h *Handler, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/inbound/leads", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Inbound-Token", token)
	}
	rec := httptest.NewRecorder()
	h.Ingest(rec, req)
	return rec
}

func TestIngest(t *testing.T) {
	h, store := newTestHandler("secret-token", domain.CompanyStatusActive)

	body := `{
		"company_slug": "test-company",
		"name": "Max Mustermann",
		"email": "max@example.com",
		"mail": {"messageId": "<abc@mail.example.com>", "subject": "Golf"}
	}`
	rec := postInbound(h, "secret-token", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp IngestResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.OK || resp.LeadID == nil || resp.Skipped {
		t.Errorf("response = %+v", resp)
	}
	if len(store.leads) != 1 {
		t.Errorf("stored leads = %d, want 1", len(store.leads))
	}
}

func TestIngest_Replay(t *testing.T) {
	h, store := newTestHandler("secret-token", domain.CompanyStatusActive)

	body := `{
		"company_slug": "test-company",
		"name": "Max",
		"mail": {"messageId": "<dup@mail.example.com>"}
	}`

	first := postInbound(h, "secret-token", body)
	if first.Code != http.StatusCreated {
		t.Fatalf("first Status = %d, want %d", first.Code, http.StatusCreated)
	}

	second := postInbound(h, "secret-token", body)
	if second.Code != http.StatusOK {
		t.Fatalf("replay Status = %d, want %d", second.Code, http.StatusOK)
	}

	var resp IngestResponse
	json.NewDecoder(second.Body).Decode(&resp)
	if !resp.OK || !resp.Skipped {
		t.Errorf("replay response = %+v", resp)
	}
	if len(store.leads) != 1 {
		t.Errorf("stored leads = %d, want 1", len(store.leads))
	}
}

func TestIngest_InvalidToken(t *testing.T) {
	h, _ := newTestHandler("secret-token", domain.CompanyStatusActive)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"wrong token", "wrong-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postInbound(h, tt.token, `{"company_slug": "test-company"}`)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

// A server without a configured token rejects every caller, even one that
// happens to send a matching empty header.
func TestIngest_Disabled(t *testing.T) {
	h, _ := newTestHandler("", domain.CompanyStatusActive)

	rec := postInbound(h, "anything", `{"company_slug": "test-company"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestIngest_UnknownCompany(t *testing.T) {
	h, _ := newTestHandler("secret-token", domain.CompanyStatusActive)

	rec := postInbound(h, "secret-token", `{"company_slug": "nope", "mail": {"messageId": "<x@y>"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestIngest_PendingCompany(t *testing.T) {
	h, store := newTestHandler("secret-token", domain.CompanyStatusPending)

	rec := postInbound(h, "secret-token", `{"company_slug": "test-company", "name": "Max", "mail": {"messageId": "<p@y>"}}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["error"] != "Your company is pending approval. Please wait for admin approval before creating resources." {
		t.Errorf("error = %q", resp["error"])
	}
	if len(store.leads) != 0 {
		t.Error("nothing should be persisted")
	}
}

func TestIngest_InvalidBody(t *testing.T) {
	h, _ := newTestHandler("secret-token", domain.CompanyStatusActive)

	rec := postInbound(h, "secret-token", `{invalid}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
