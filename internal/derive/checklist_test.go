package derive

import (
	"testing"

	"incidencias-cli/internal/model"
)

func TestChecklistTemplateSelection(t *testing.T) {
	claim := Checklist(model.Incident{IsClaim: true, Priority: model.PriorityCritical})
	if len(claim) != 4 || claim[0].ID != "notificar-aseguradora" {
		t.Fatalf("claim template wins over urgency: %+v", claim)
	}

	urgent := Checklist(model.Incident{Priority: model.PriorityHigh})
	if len(urgent) != 5 {
		t.Fatalf("urgent checklist should be 3 urgent + 2 general steps, got %d", len(urgent))
	}
	if urgent[0].ID != "contactar-reparador" || urgent[3].ID != "evaluar-alcance" {
		t.Fatalf("urgent composition wrong: %+v", urgent)
	}

	general := Checklist(model.Incident{Priority: model.PriorityMedium})
	if len(general) != 3 || general[0].ID != "evaluar-alcance" {
		t.Fatalf("general template: %+v", general)
	}
}

func TestExplicitChecklistWinsAndGetsNormalized(t *testing.T) {
	in := model.Incident{
		IsClaim: true,
		Checklist: []model.ChecklistStep{
			{Label: "Revisar válvula de corte"},
			{ID: "custom", Label: "Avisar al presidente"},
			{},
		},
	}
	steps := Checklist(in)
	if len(steps) != 3 {
		t.Fatalf("explicit checklist replaced by a template: %+v", steps)
	}
	if steps[0].ID != "revisar-valvula-de-corte" {
		t.Fatalf("label slug: got %q", steps[0].ID)
	}
	if steps[1].ID != "custom" {
		t.Fatalf("explicit id must survive: got %q", steps[1].ID)
	}
	if steps[2].ID != "paso-3" {
		t.Fatalf("positional fallback: got %q", steps[2].ID)
	}
}

func TestMergeChecklistStateExactlyOneBoolPerStep(t *testing.T) {
	steps := []model.ChecklistStep{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	prior := map[string]bool{"a": true, "zombi": true}
	state := MergeChecklistState(steps, prior)
	if len(state) != 3 {
		t.Fatalf("state must cover exactly the steps, got %v", state)
	}
	if !state["a"] || state["b"] || state["c"] {
		t.Fatalf("completion defaults wrong: %v", state)
	}
	if _, ok := state["zombi"]; ok {
		t.Fatalf("stale ids must be dropped")
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Notificar a la aseguradora":  "notificar-a-la-aseguradora",
		"Revisar cobertura (póliza)":  "revisar-cobertura-poliza",
		"  Añadir  señalización  ":    "anadir-senalizacion",
		"":                            "",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Fatalf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
