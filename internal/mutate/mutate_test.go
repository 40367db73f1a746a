package mutate

import (
	"context"
	"errors"
	"testing"
	"time"

	"incidencias-cli/internal/backend"
	"incidencias-cli/internal/model"
	"incidencias-cli/internal/session"
)

// fakeDocs records writes; unused Documents methods panic via the embedded
// nil interface, which catches accidental calls.
type fakeDocs struct {
	backend.Documents
	saved     []model.Incident
	saveErr   error
	checklist map[string]bool
	checkErr  error
}

func (f *fakeDocs) SaveIncident(ctx context.Context, in model.Incident) (model.Incident, error) {
	if f.saveErr != nil {
		return model.Incident{}, f.saveErr
	}
	if in.ID == "" {
		in.ID = "inc-new"
	}
	f.saved = append(f.saved, in)
	return in, nil
}

func (f *fakeDocs) SetIncidentChecklist(ctx context.Context, id string, state map[string]bool) error {
	if f.checkErr != nil {
		return f.checkErr
	}
	f.checklist = state
	return nil
}

func TestCreateRejectsBeforeTouchingTheBackend(t *testing.T) {
	docs := &fakeDocs{}
	now := time.Now()

	_, err := CreateIncident(context.Background(), docs, model.Incident{Title: "  "}, nil, now)
	if !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("want ErrTitleRequired, got %v", err)
	}
	_, err = CreateIncident(context.Background(), docs,
		model.Incident{Title: "Fuga", Description: "muy corta"}, nil, now)
	if !errors.Is(err, ErrDescriptionShort) {
		t.Fatalf("want ErrDescriptionShort, got %v", err)
	}
	_, err = CreateIncident(context.Background(), docs,
		model.Incident{Title: "Fuga", IsClaim: true}, nil, now)
	if !errors.Is(err, ErrClaimRefRequired) {
		t.Fatalf("want ErrClaimRefRequired, got %v", err)
	}
	_, err = CreateIncident(context.Background(), docs,
		model.Incident{Title: "Fuga", DueDate: "2020-01-01"}, nil, now)
	if !errors.Is(err, ErrDueBeforeToday) {
		t.Fatalf("want ErrDueBeforeToday, got %v", err)
	}
	if len(docs.saved) != 0 {
		t.Fatalf("invalid incidents must never reach the backend")
	}
}

func TestEditAllowsOldDueDatesDownToCreation(t *testing.T) {
	docs := &fakeDocs{}
	created, _ := model.ParseDay("2025-01-10")
	in := model.Incident{ID: "inc-1", Title: "Vieja", CreatedAt: created, DueDate: "2025-02-01"}

	if _, err := EditIncident(context.Background(), docs, in, nil, time.Now()); err != nil {
		t.Fatalf("due date after creation must pass on edit: %v", err)
	}

	in.DueDate = "2025-01-01"
	if _, err := EditIncident(context.Background(), docs, in, nil, time.Now()); !errors.Is(err, ErrDueBeforeCreated) {
		t.Fatalf("want ErrDueBeforeCreated, got %v", err)
	}
}

func TestCreateFillsDefaultsAndBuildingPolicy(t *testing.T) {
	docs := &fakeDocs{}
	buildings := []model.Building{
		{ID: "edi-1", Name: "Gran Vía 10", DefaultPolicyID: "POL-1"},
		{ID: "edi-2", Name: "Sol 3"},
	}

	saved, err := CreateIncident(context.Background(), docs, model.Incident{
		Title:      "Rotura de tubería",
		BuildingID: "edi-1",
		IsClaim:    true,
		ClaimRef:   "SIN-9",
	}, buildings, time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if saved.Status != model.StatusOpen || saved.Priority != model.PriorityMedium {
		t.Fatalf("defaults: %s/%s", saved.Status, saved.Priority)
	}
	if saved.PolicyID != "POL-1" {
		t.Fatalf("claim should inherit the building's default policy, got %q", saved.PolicyID)
	}

	// An explicit policy wins over the building default.
	saved, err = CreateIncident(context.Background(), docs, model.Incident{
		Title: "Otra", BuildingID: "edi-1", IsClaim: true, ClaimRef: "SIN-10", PolicyID: "POL-9",
	}, buildings, time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if saved.PolicyID != "POL-9" {
		t.Fatalf("explicit policy overridden: %q", saved.PolicyID)
	}
}

func TestSetStatusRejectsUnknownState(t *testing.T) {
	docs := &fakeDocs{}
	if err := SetStatus(context.Background(), docs, "inc-1", model.Status("archivada")); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("want ErrInvalidStatus, got %v", err)
	}
}

func TestChecklistToggleCommit(t *testing.T) {
	det := &session.Detail{
		Incident:       model.Incident{ID: "inc-1"},
		Checklist:      []model.ChecklistStep{{ID: "a"}, {ID: "b"}},
		ChecklistState: map[string]bool{"a": false, "b": true},
	}
	docs := &fakeDocs{}

	toggle, state := BeginChecklistToggle(det, "a")
	if !det.ChecklistState["a"] {
		t.Fatalf("toggle must apply immediately")
	}
	if err := PersistChecklist(context.Background(), docs, toggle.IncidentID, state); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if !docs.checklist["a"] || !docs.checklist["b"] {
		t.Fatalf("persisted state wrong: %v", docs.checklist)
	}
}

func TestChecklistToggleRollback(t *testing.T) {
	det := &session.Detail{
		Incident:       model.Incident{ID: "inc-1"},
		Checklist:      []model.ChecklistStep{{ID: "a"}},
		ChecklistState: map[string]bool{"a": false},
	}
	docs := &fakeDocs{checkErr: errors.New("sin conexión")}

	toggle, state := BeginChecklistToggle(det, "a")
	if err := PersistChecklist(context.Background(), docs, toggle.IncidentID, state); err == nil {
		t.Fatalf("expected write failure")
	}
	toggle.Rollback(det)
	if det.ChecklistState["a"] {
		t.Fatalf("failed toggle must roll back to unchecked")
	}

	// Rollback after the pane moved on must not touch the new detail.
	other := &session.Detail{Incident: model.Incident{ID: "inc-2"}, ChecklistState: map[string]bool{"a": true}}
	toggle.Rollback(other)
	if !other.ChecklistState["a"] {
		t.Fatalf("rollback leaked into another incident")
	}
}

func TestValidateAttachment(t *testing.T) {
	if err := ValidateAttachment("foto.JPG", 1024); err != nil {
		t.Fatalf("jpg should pass: %v", err)
	}
	if err := ValidateAttachment("parte.pdf", AttachmentMaxBytes); err != nil {
		t.Fatalf("pdf at the limit should pass: %v", err)
	}
	if err := ValidateAttachment("virus.exe", 10); !errors.Is(err, ErrFileType) {
		t.Fatalf("want ErrFileType, got %v", err)
	}
	if err := ValidateAttachment("plano.pdf", AttachmentMaxBytes+1); err == nil {
		t.Fatalf("oversize file must fail")
	}
}

func TestPostCommunicationRequiresMessage(t *testing.T) {
	docs := &fakeDocs{}
	_, err := PostCommunication(context.Background(), docs, "inc-1", "nota", "   ", model.User{})
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("want ErrEmptyMessage, got %v", err)
	}
}
