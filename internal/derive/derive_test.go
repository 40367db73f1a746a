package derive

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

func TestSortByPriorityThenDueDate(t *testing.T) {
	ins := []model.Incident{
		{ID: "a", Priority: model.PriorityLow, DueDate: "2026-09-02"},
		{ID: "b", Priority: model.PriorityCritical},
		{ID: "c", Priority: model.PriorityHigh, DueDate: "2026-09-10"},
		{ID: "d", Priority: model.PriorityHigh, DueDate: "2026-09-03"},
		{ID: "e", Priority: model.PriorityMedium},
	}
	got := Sort(ins)
	want := []string{"b", "d", "c", "e", "a"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: want %s, got %s", i, id, got[i].ID)
		}
	}
	if ins[0].ID != "a" {
		t.Fatalf("Sort must not mutate its input")
	}
}

func TestSortMissingDueDateGoesLast(t *testing.T) {
	ins := []model.Incident{
		{ID: "sin", Priority: model.PriorityHigh},
		{ID: "con", Priority: model.PriorityHigh, DueDate: "2026-12-31"},
	}
	got := Sort(ins)
	if got[0].ID != "con" || got[1].ID != "sin" {
		t.Fatalf("missing due date should sort last: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestSortIsStableOnTies(t *testing.T) {
	ins := []model.Incident{
		{ID: "x", Priority: model.PriorityMedium, DueDate: "2026-09-05"},
		{ID: "y", Priority: model.PriorityMedium, DueDate: "2026-09-05"},
	}
	got := Sort(ins)
	if got[0].ID != "x" || got[1].ID != "y" {
		t.Fatalf("equal keys must keep input order: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestKanbanBucketsUnknownStatusAsOpen(t *testing.T) {
	ins := []model.Incident{
		{ID: "a", Status: model.StatusOpen},
		{ID: "b", Status: model.Status("pendiente_legacy")},
		{ID: "c", Status: model.StatusClosed},
	}
	b := Kanban(ins)
	if len(b.Columns[model.StatusOpen]) != 2 {
		t.Fatalf("open column should hold the legacy status too, got %d", len(b.Columns[model.StatusOpen]))
	}
	if len(b.Columns[model.StatusClosed]) != 1 {
		t.Fatalf("closed column: got %d", len(b.Columns[model.StatusClosed]))
	}
}

func TestSummarizeCountsUnknownAsOpen(t *testing.T) {
	s := Summarize([]model.Incident{
		{Status: model.StatusOpen},
		{Status: model.Status("???")},
		{Status: model.StatusInProgress},
		{Status: model.StatusClosed},
	})
	if s.Total != 4 || s.Open != 2 || s.InProgress != 1 || s.Closed != 1 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestComputeMetricsAndDeltas(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.Local)
	ins := []model.Incident{
		{ID: "a", Status: model.StatusOpen, CreatedAt: now},
		{ID: "b", Status: model.StatusInProgress, DueDate: "2026-09-02", ContractorID: "rep-1", CreatedAt: day("2026-08-01")},
		{ID: "c", Status: model.StatusClosed, DueDate: "2026-09-01", CreatedAt: day("2026-08-01")},
		{ID: "d", Status: model.StatusOpen, DueDate: "2026-09-20", CreatedAt: day("2026-08-01")},
	}

	var base PrevComputation
	m := ComputeMetrics(ins, now, &base)
	if m.Open != 2 {
		t.Fatalf("open: got %d", m.Open)
	}
	// Closed incidents never count as due soon; d is outside the window.
	if m.DueSoon != 1 {
		t.Fatalf("due soon: got %d", m.DueSoon)
	}
	if m.NoContractor != 3 {
		t.Fatalf("no contractor: got %d", m.NoContractor)
	}
	if m.CreatedToday != 1 {
		t.Fatalf("created today: got %d", m.CreatedToday)
	}
	if m.OpenDelta != 0 {
		t.Fatalf("first computation must carry zero deltas, got %d", m.OpenDelta)
	}

	// One more open incident: the delta reflects the difference.
	ins = append(ins, model.Incident{ID: "e", Status: model.StatusOpen, ContractorID: "rep-1", CreatedAt: day("2026-08-01")})
	m2 := ComputeMetrics(ins, now, &base)
	if m2.OpenDelta != 1 {
		t.Fatalf("open delta: got %d", m2.OpenDelta)
	}
	if m2.DueSoonDelta != 0 {
		t.Fatalf("due soon delta: got %d", m2.DueSoonDelta)
	}
}

func TestUpcomingCapsAndExcludesClosed(t *testing.T) {
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.Local)
	var ins []model.Incident
	for i := 0; i < 7; i++ {
		ins = append(ins, model.Incident{
			ID: string(rune('a' + i)), Status: model.StatusOpen, DueDate: "2026-09-03",
		})
	}
	ins = append(ins, model.Incident{ID: "z", Status: model.StatusClosed, DueDate: "2026-09-02"})

	got := Upcoming(ins, now)
	if len(got) != UpcomingCap {
		t.Fatalf("expected cap of %d, got %d", UpcomingCap, len(got))
	}
	for _, in := range got {
		if in.Status == model.StatusClosed {
			t.Fatalf("closed incident leaked into the agenda")
		}
	}
}

func TestCalendarBucketsByDay(t *testing.T) {
	ins := []model.Incident{
		{ID: "a", Status: model.StatusOpen, DueDate: "2026-09-03"},
		{ID: "b", Status: model.StatusOpen, DueDate: "2026-09-03"},
		{ID: "c", Status: model.StatusOpen, DueDate: "2026-09-04"},
		{ID: "d", Status: model.StatusClosed, DueDate: "2026-09-03"},
		{ID: "e", Status: model.StatusOpen},
	}
	buckets := CalendarBuckets(ins)
	if len(buckets["2026-09-03"]) != 2 {
		t.Fatalf("2026-09-03: got %d", len(buckets["2026-09-03"]))
	}
	if len(buckets["2026-09-04"]) != 1 {
		t.Fatalf("2026-09-04: got %d", len(buckets["2026-09-04"]))
	}
	if len(buckets) != 2 {
		t.Fatalf("closed and undated incidents must not create buckets: %v", buckets)
	}
}
