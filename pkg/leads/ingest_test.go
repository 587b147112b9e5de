package leads

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tendant/dealer-crm/pkg/domain"
	"github.com/tendant/dealer-crm/pkg/guard"
)

type fakeVehicleLookup struct {
	vehicles map[uuid.UUID]*domain.Vehicle
}

func (f *fakeVehicleLookup) GetByID(_ context.Context, id uuid.UUID) (*domain.Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return nil, domain.ErrVehicleNotFound
	}
	return v, nil
}

func newTestIngester(status domain.CompanyStatus) (*Ingester, *fakeLeadStore, *fakeActivityStore, *domain.Company, *fakeVehicleLookup) {
	c := &domain.Company{ID: uuid.New(), Name: "Test Company", Slug: "test-company", Status: status}
	activities := &fakeActivityStore{}
	store := newFakeLeadStore(activities)
	loader := &fakeCompanyLoader{companies: map[uuid.UUID]*domain.Company{c.ID: c}}
	vehicles := &fakeVehicleLookup{vehicles: map[uuid.UUID]*domain.Vehicle{}}
	svc := NewService(store, activities, vehicles, guard.New(loader))
	return NewIngester(svc, loader, vehicles), store, activities, c, vehicles
}

func TestIngest(t *testing.T) {
	ing, store, activities, c, _ := newTestIngester(domain.CompanyStatusActive)

	result, err := ing.Ingest(context.Background(), &IngestRequest{
		CompanySlug: "test-company",
		Name:        "Max Mustermann",
		Email:       "max@example.com",
		Phone:       "+49 151 1234567",
		RawText:     "Hello, I am interested in the Golf.",
		Mail: MailMeta{
			MessageID: "<abc123@mail.example.com>",
			From:      "max@example.com",
			Subject:   "Interest in VW Golf",
		},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Skipped {
		t.Fatal("first ingest should not be skipped")
	}

	lead, ok := store.leads[result.LeadID]
	if !ok {
		t.Fatal("lead not stored")
	}
	if lead.CompanyID != c.ID {
		t.Errorf("CompanyID = %s, want %s", lead.CompanyID, c.ID)
	}
	if lead.Stage != domain.LeadStageNew || lead.Source != domain.LeadSourceWeb {
		t.Errorf("stage/source = %s/%s", lead.Stage, lead.Source)
	}

	if len(activities.activities) != 1 {
		t.Fatalf("activities = %d, want 1", len(activities.activities))
	}
	text := activities.activities[0].Text
	if !strings.Contains(text, "mail_message_id=<abc123@mail.example.com>") {
		t.Errorf("import activity missing dedupe marker: %q", text)
	}
	if !strings.Contains(text, "subject=Interest in VW Golf") {
		t.Errorf("import activity missing subject: %q", text)
	}
}

func TestIngest_ReplayIsSkipped(t *testing.T) {
	ing, store, activities, _, _ := newTestIngester(domain.CompanyStatusActive)

	req := &IngestRequest{
		CompanySlug: "test-company",
		Name:        "Max",
		Mail:        MailMeta{MessageID: "<dup@mail.example.com>"},
	}

	first, err := ing.Ingest(context.Background(), req)
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	second, err := ing.Ingest(context.Background(), req)
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}

	if first.Skipped {
		t.Error("first ingest should not be skipped")
	}
	if !second.Skipped {
		t.Error("replay should be skipped")
	}
	if len(store.leads) != 1 {
		t.Errorf("stored leads = %d, want 1", len(store.leads))
	}
	if len(activities.activities) != 1 {
		t.Errorf("activities = %d, want 1", len(activities.activities))
	}
}

func TestIngest_ContactFallbackFromRawText(t *testing.T) {
	ing, store, _, _, _ := newTestIngester(domain.CompanyStatusActive)

	result, err := ing.Ingest(context.Background(), &IngestRequest{
		CompanySlug: "test-company",
		RawText:     "Please call me at +49 151 123 4567 or write to anna.schmidt@example.org. Thanks!",
		Mail:        MailMeta{MessageID: "<fallback@mail.example.com>"},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	lead := store.leads[result.LeadID]
	if lead.Name != "Lead (email)" {
		t.Errorf("Name = %q, want default", lead.Name)
	}
	if lead.Email != "anna.schmidt@example.org" {
		t.Errorf("Email = %q", lead.Email)
	}
	if !strings.Contains(lead.Phone, "+49 151 123 4567") {
		t.Errorf("Phone = %q", lead.Phone)
	}
}

func TestIngest_UnknownCompany(t *testing.T) {
	ing, _, _, _, _ := newTestIngester(domain.CompanyStatusActive)

	_, err := ing.Ingest(context.Background(), &IngestRequest{CompanySlug: "nope"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

func TestIngest_MissingSlug(t *testing.T) {
	ing, _, _, _, _ := newTestIngester(domain.CompanyStatusActive)

	_, err := ing.Ingest(context.Background(), &IngestRequest{})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

// Ingestion runs through the same active-company gate as any other lead
// creation; a pending company cannot receive inbound leads.
func TestIngest_PendingCompanyBlocked(t *testing.T) {
	ing, store, _, _, _ := newTestIngester(domain.CompanyStatusPending)

	_, err := ing.Ingest(context.Background(), &IngestRequest{
		CompanySlug: "test-company",
		Name:        "Max",
		Mail:        MailMeta{MessageID: "<pending@mail.example.com>"},
	})
	var nerr *domain.CompanyNotActiveError
	if !errors.As(err, &nerr) {
		t.Fatalf("error = %v, want *CompanyNotActiveError", err)
	}
	if len(store.leads) != 0 {
		t.Error("nothing should be persisted")
	}
}

func TestIngest_VehicleAttachment(t *testing.T) {
	ing, store, _, c, vehicles := newTestIngester(domain.CompanyStatusActive)

	mine := &domain.Vehicle{ID: uuid.New(), CompanyID: c.ID, Make: "VW", Model: "Golf"}
	other := &domain.Vehicle{ID: uuid.New(), CompanyID: uuid.New(), Make: "BMW", Model: "320i"}
	vehicles.vehicles[mine.ID] = mine
	vehicles.vehicles[other.ID] = other

	// Vehicle of the same company is attached.
	result, err := ing.Ingest(context.Background(), &IngestRequest{
		CompanySlug: "test-company",
		Name:        "Max",
		VehicleID:   &mine.ID,
		Mail:        MailMeta{MessageID: "<v1@mail.example.com>"},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if lead := store.leads[result.LeadID]; lead.VehicleID == nil || *lead.VehicleID != mine.ID {
		t.Error("vehicle of the same company should be attached")
	}

	// Vehicle of another company is dropped, not an error.
	result, err = ing.Ingest(context.Background(), &IngestRequest{
		CompanySlug: "test-company",
		Name:        "Max",
		VehicleID:   &other.ID,
		Mail:        MailMeta{MessageID: "<v2@mail.example.com>"},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if lead := store.leads[result.LeadID]; lead.VehicleID != nil {
		t.Error("vehicle of another company must not be attached")
	}
}

func TestIngest_TruncatesLongFields(t *testing.T) {
	ing, store, _, _, _ := newTestIngester(domain.CompanyStatusActive)

	result, err := ing.Ingest(context.Background(), &IngestRequest{
		CompanySlug: "test-company",
		Name:        strings.Repeat("x", 500),
		Mail:        MailMeta{MessageID: "<long@mail.example.com>"},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if got := len(store.leads[result.LeadID].Name); got != 120 {
		t.Errorf("len(Name) = %d, want 120", got)
	}
}

// Truncation counts codepoints and never cuts through a multi-byte rune.
func TestIngest_TruncatesOnRuneBoundary(t *testing.T) {
	ing, store, _, _, _ := newTestIngester(domain.CompanyStatusActive)

	result, err := ing.Ingest(context.Background(), &IngestRequest{
		CompanySlug: "test-company",
		Name:        strings.Repeat("ü", 500),
		Mail:        MailMeta{MessageID: "<runes@mail.example.com>"},
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	name := store.leads[result.LeadID].Name
	if !utf8.ValidString(name) {
		t.Error("Name is not valid UTF-8")
	}
	if got := utf8.RuneCountInString(name); got != 120 {
		t.Errorf("rune count = %d, want 120", got)
	}
}
