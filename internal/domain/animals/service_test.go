package animals

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"paws-and-places/internal/ports/alerts"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Report

	listErr error // si está seteado, ListVisible falla
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Report{}}
}

func (r *testRepo) Create(ctx context.Context, rep Report) error {
	if rep.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[rep.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[rep.ID] = rep
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Report, error) {
	rep, ok := r.byID[id]
	if !ok {
		return Report{}, ErrNotFound
	}
	return rep, nil
}

func (r *testRepo) ListVisible(ctx context.Context) ([]Report, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]Report, 0)
	for _, rep := range r.byID {
		if !rep.Deleted {
			out = append(out, rep)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *testRepo) ListArchived(ctx context.Context) ([]Report, error) {
	out := make([]Report, 0)
	for _, rep := range r.byID {
		if rep.Deleted {
			out = append(out, rep)
		}
	}
	return out, nil
}

func (r *testRepo) UpdateAdoption(ctx context.Context, id string, u AdoptionUpdate) (Report, error) {
	rep, ok := r.byID[id]
	if !ok {
		return Report{}, ErrNotFound
	}
	rep.IsAdopted = u.IsAdopted
	rep.Adopter = u.Adopter
	rep.AdoptedAt = u.AdoptedAt
	r.byID[id] = rep
	return rep, nil
}

func (r *testRepo) SetDeleted(ctx context.Context, id string, deleted bool, deletedAt *time.Time) error {
	rep, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	rep.Deleted = deleted
	rep.DeletedAt = deletedAt
	r.byID[id] = rep
	return nil
}

func (r *testRepo) Purge(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// -------------------------
// Test alert publisher
// -------------------------

type testAlerts struct {
	published []alerts.Emergency
	failWith  error
}

func (p *testAlerts) PublishEmergency(ctx context.Context, e alerts.Emergency) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.published = append(p.published, e)
	return nil
}

// -------------------------
// Helpers
// -------------------------

func validReportInput() ReportInput {
	return ReportInput{
		Species:         "dog",
		HealthCondition: "injured leg, needs vet",
		Address:         "Av. Siempre Viva 742",
		MapURL:          "https://maps.example.com/x",
		QRCodeURL:       "https://pay.example.com/qr.png",
		Reporter: Contact{
			Name:  "Ana",
			Email: "ana@example.com",
			Phone: "+5491100000000",
		},
	}
}

// -------------------------
// Tests
// -------------------------

func TestService_Report_CreatesAvailable(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	r, err := svc.Report(context.Background(), validReportInput())
	if err != nil {
		t.Fatalf("Report returned error: %v", err)
	}
	if r.ID == "" {
		t.Fatalf("expected generated id")
	}
	if r.State() != StateAvailable {
		t.Fatalf("expected state available, got %s", r.State())
	}
	if r.Count != 1 {
		t.Fatalf("expected count default 1, got %d", r.Count)
	}
	if r.CreatedAt != now {
		t.Fatalf("expected CreatedAt=now")
	}
	if _, err := repo.GetByID(context.Background(), r.ID); err != nil {
		t.Fatalf("expected report persisted: %v", err)
	}
}

func TestService_Report_Validation(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	cases := map[string]func(*ReportInput){
		"unknown species":    func(in *ReportInput) { in.Species = "hamster" },
		"empty condition":    func(in *ReportInput) { in.HealthCondition = "  " },
		"empty address":      func(in *ReportInput) { in.Address = "" },
		"empty map url":      func(in *ReportInput) { in.MapURL = "" },
		"empty qr url":       func(in *ReportInput) { in.QRCodeURL = "" },
		"negative count":     func(in *ReportInput) { in.Count = -2 },
		"reporter no name":   func(in *ReportInput) { in.Reporter.Name = "" },
		"reporter no email":  func(in *ReportInput) { in.Reporter.Email = "" },
		"reporter bad email": func(in *ReportInput) { in.Reporter.Email = "not-an-email" },
	}

	for name, mutate := range cases {
		in := validReportInput()
		mutate(&in)
		if _, err := svc.Report(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}

	if len(repo.byID) != 0 {
		t.Fatalf("expected no reports persisted, got %d", len(repo.byID))
	}
}

func TestService_Report_Emergency_PublishesAlert(t *testing.T) {
	repo := newTestRepo()
	pub := &testAlerts{}
	svc := NewService(repo, pub, nil)

	in := validReportInput()
	in.IsEmergency = true
	in.Count = 3

	r, err := svc.Report(context.Background(), in)
	if err != nil {
		t.Fatalf("Report returned error: %v", err)
	}

	if len(pub.published) != 1 {
		t.Fatalf("expected 1 alert published, got %d", len(pub.published))
	}
	e := pub.published[0]
	if e.ReportID != r.ID || e.Count != 3 || e.Species != "dog" {
		t.Fatalf("alert payload mismatch: %#v", e)
	}
}

func TestService_Report_EmergencyPublishFailure_DoesNotFailCreation(t *testing.T) {
	repo := newTestRepo()
	pub := &testAlerts{failWith: errors.New("broker down")}
	svc := NewService(repo, pub, nil)

	in := validReportInput()
	in.IsEmergency = true

	r, err := svc.Report(context.Background(), in)
	if err != nil {
		t.Fatalf("expected creation to survive publish failure, got %v", err)
	}
	if _, err := repo.GetByID(context.Background(), r.ID); err != nil {
		t.Fatalf("expected report persisted: %v", err)
	}
}

func TestService_Report_NonEmergency_NoAlert(t *testing.T) {
	repo := newTestRepo()
	pub := &testAlerts{}
	svc := NewService(repo, pub, nil)

	if _, err := svc.Report(context.Background(), validReportInput()); err != nil {
		t.Fatalf("Report returned error: %v", err)
	}
	if len(pub.published) != 0 {
		t.Fatalf("expected no alerts, got %d", len(pub.published))
	}
}

func TestService_Delete_SoftDeletesAndHides(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	r, _ := svc.Report(context.Background(), validReportInput())

	if err := svc.Delete(context.Background(), Session{}, r.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden without owner session, got %v", err)
	}

	if err := svc.Delete(context.Background(), Session{Owner: true}, r.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	visible, _ := repo.ListVisible(context.Background())
	if len(visible) != 0 {
		t.Fatalf("expected deleted report hidden from visible list")
	}

	archived, _ := svc.ListArchived(context.Background(), Session{Owner: true})
	if len(archived) != 1 || archived[0].ID != r.ID {
		t.Fatalf("expected report in archive")
	}
	if archived[0].DeletedAt == nil || !archived[0].DeletedAt.Equal(now) {
		t.Fatalf("expected DeletedAt=now, got %v", archived[0].DeletedAt)
	}
}

func TestService_Restore_UndoesSoftDelete(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)
	owner := Session{Owner: true}

	r, _ := svc.Report(context.Background(), validReportInput())
	if err := svc.Delete(context.Background(), owner, r.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Restore(context.Background(), owner, r.ID); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	got, err := svc.GetByID(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("GetByID after restore: %v", err)
	}
	if got.Deleted || got.DeletedAt != nil {
		t.Fatalf("expected restore to clear delete markers, got %#v", got)
	}
}

func TestService_Purge_RequiresArchive(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)
	owner := Session{Owner: true}

	r, _ := svc.Report(context.Background(), validReportInput())

	// Sin soft-delete previo, purge rebota.
	if err := svc.Purge(context.Background(), owner, r.ID); !errors.Is(err, ErrBadState) {
		t.Fatalf("expected ErrBadState purging a live report, got %v", err)
	}

	if err := svc.Delete(context.Background(), owner, r.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Purge(context.Background(), owner, r.ID); err != nil {
		t.Fatalf("Purge: %v", err)
	}

	if _, err := svc.GetByID(context.Background(), r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after purge, got %v", err)
	}
}

func TestService_ListArchived_OwnerOnly(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	if _, err := svc.ListArchived(context.Background(), Session{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestService_ListPublic_AppliesFilter(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	dog := validReportInput()
	cat := validReportInput()
	cat.Species = "cat"
	cat.Address = "Parque Centenario"

	if _, err := svc.Report(context.Background(), dog); err != nil {
		t.Fatalf("Report dog: %v", err)
	}
	if _, err := svc.Report(context.Background(), cat); err != nil {
		t.Fatalf("Report cat: %v", err)
	}

	got, err := svc.ListPublic(context.Background(), Filter{Species: SpeciesCat})
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if len(got) != 1 || got[0].Species != SpeciesCat {
		t.Fatalf("expected only the cat, got %#v", got)
	}

	got, err = svc.ListPublic(context.Background(), Filter{Query: "centenario"})
	if err != nil {
		t.Fatalf("ListPublic: %v", err)
	}
	if len(got) != 1 || got[0].Address != "Parque Centenario" {
		t.Fatalf("expected query match on address, got %#v", got)
	}
}
