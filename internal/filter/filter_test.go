package filter

import (
	"testing"
	"time"

	"incidencias-cli/internal/model"
)

func day(s string) time.Time {
	t, ok := model.ParseDay(s)
	if !ok {
		panic("bad day: " + s)
	}
	return t
}

func sample() []model.Incident {
	return []model.Incident{
		{ID: "inc-1", Title: "Fuga en cubierta", Status: model.StatusOpen, Priority: model.PriorityHigh,
			BuildingID: "edi-1", Tags: []string{"tejado", "humedades"}, CreatedAt: day("2026-08-01")},
		{ID: "inc-2", Title: "Ascensor parado", Status: model.StatusOpen, Priority: model.PriorityLow,
			BuildingID: "edi-2", ContractorID: "rep-1", CreatedAt: day("2026-08-10")},
		{ID: "inc-3", Title: "Rotura de tubería", Status: model.StatusInProgress, Priority: model.PriorityHigh,
			IsClaim: true, ClaimRef: "SIN-774", BuildingID: "edi-1", CreatedAt: day("2026-08-20")},
		{ID: "inc-4", Title: "Pintura portal", Status: model.StatusClosed, Priority: model.PriorityMedium,
			CreatedAt: day("2026-07-15")},
	}
}

func ids(ins []model.Incident) []string {
	out := make([]string, len(ins))
	for i, in := range ins {
		out[i] = in.ID
	}
	return out
}

func TestEmptyCriteriaMatchesEverything(t *testing.T) {
	got := Apply(sample(), Criteria{})
	if len(got) != 4 {
		t.Fatalf("expected all 4 incidents, got %d", len(got))
	}
	if !(Criteria{}).IsZero() {
		t.Fatalf("empty criteria should be zero")
	}
}

func TestCriteriaCombineWithAND(t *testing.T) {
	ins := sample()

	byStatus := Apply(ins, Criteria{Status: model.StatusOpen})
	if len(byStatus) != 2 {
		t.Fatalf("estado abierta: expected 2, got %v", ids(byStatus))
	}

	narrowed := Apply(ins, Criteria{Status: model.StatusOpen, Priority: model.PriorityHigh})
	if len(narrowed) != 1 || narrowed[0].ID != "inc-1" {
		t.Fatalf("abierta+alta: expected [inc-1], got %v", ids(narrowed))
	}

	// Adding a criterion can only shrink the result set.
	if len(narrowed) > len(byStatus) {
		t.Fatalf("narrowing grew the result set")
	}
}

func TestSearchCoversTitleAndClaimRef(t *testing.T) {
	ins := sample()
	if got := Apply(ins, Criteria{Search: "TUBERÍA"}); len(got) != 1 || got[0].ID != "inc-3" {
		t.Fatalf("title search: got %v", ids(got))
	}
	if got := Apply(ins, Criteria{Search: "sin-774"}); len(got) != 1 || got[0].ID != "inc-3" {
		t.Fatalf("claim ref search: got %v", ids(got))
	}
}

func TestTagsRequireSubset(t *testing.T) {
	ins := sample()
	if got := Apply(ins, Criteria{Tags: []string{"tejado"}}); len(got) != 1 || got[0].ID != "inc-1" {
		t.Fatalf("single tag: got %v", ids(got))
	}
	if got := Apply(ins, Criteria{Tags: []string{"tejado", "humedades"}}); len(got) != 1 {
		t.Fatalf("both tags: got %v", ids(got))
	}
	if got := Apply(ins, Criteria{Tags: []string{"tejado", "fachada"}}); len(got) != 0 {
		t.Fatalf("missing tag should exclude, got %v", ids(got))
	}
}

func TestClaimsOnly(t *testing.T) {
	got := Apply(sample(), Criteria{ClaimsOnly: true})
	if len(got) != 1 || got[0].ID != "inc-3" {
		t.Fatalf("claims only: got %v", ids(got))
	}
}

func TestDateRangeIsInclusiveAndPermissive(t *testing.T) {
	ins := sample()

	got := Apply(ins, Criteria{From: "2026-08-01", To: "2026-08-10"})
	if len(got) != 2 {
		t.Fatalf("range: expected inc-1 and inc-2, got %v", ids(got))
	}

	// An unparseable bound imposes no constraint.
	if got := Apply(ins, Criteria{From: "mañana"}); len(got) != 4 {
		t.Fatalf("bad bound should be ignored, got %v", ids(got))
	}

	// An incident without a creation date passes any date bound.
	noDate := model.Incident{ID: "inc-x", Title: "Sin fecha"}
	if !Matches(noDate, Criteria{From: "2026-08-01"}) {
		t.Fatalf("missing creation date should pass date bounds")
	}
}

func TestNormalizeLegacyPayloads(t *testing.T) {
	c := Normalize(map[string]any{
		"estado":         "abierta",
		"etiquetas":      "tejado, humedades",
		"soloSiniestros": "on",
	})
	if c.Status != model.StatusOpen {
		t.Fatalf("status: got %q", c.Status)
	}
	if len(c.Tags) != 2 || c.Tags[0] != "tejado" || c.Tags[1] != "humedades" {
		t.Fatalf("string tags: got %v", c.Tags)
	}
	if !c.ClaimsOnly {
		t.Fatalf("legacy \"on\" should read as true")
	}

	c = Normalize(map[string]any{"etiquetas": []any{"fachada", " ", "portal"}})
	if len(c.Tags) != 2 {
		t.Fatalf("array tags: got %v", c.Tags)
	}
}

func TestRawRoundTrip(t *testing.T) {
	c := Criteria{Status: model.StatusOpen, Tags: []string{"tejado"}, ClaimsOnly: true}
	back := Normalize(c.Raw())
	if back.Status != c.Status || len(back.Tags) != 1 || !back.ClaimsOnly {
		t.Fatalf("round trip lost fields: %+v", back)
	}
}
