package session

import (
	"testing"
	"time"

	"incidencias-cli/internal/backend"
	"incidencias-cli/internal/model"
)

func snap(seq int, ids ...string) backend.Snapshot {
	s := backend.Snapshot{Seq: seq}
	for _, id := range ids {
		s.Incidents = append(s.Incidents, model.Incident{ID: id, Title: id, Status: model.StatusOpen})
	}
	return s
}

func TestApplySnapshotDropsVanishedSelection(t *testing.T) {
	d := NewDashboard(model.User{ID: "usr-1"})
	d.ApplySnapshot(snap(1, "inc-1", "inc-2"))

	gen, _ := d.Select("inc-2")
	d.ResolveDetail(gen, Detail{Incident: model.Incident{ID: "inc-2"}})
	if d.Detail() == nil {
		t.Fatalf("detail should be cached")
	}

	dropped := d.ApplySnapshot(snap(2, "inc-1"))
	if !dropped {
		t.Fatalf("selection should report dropped")
	}
	if d.Selected() != "" {
		t.Fatalf("selection must fall to none, not to a neighbor; got %q", d.Selected())
	}
	if d.Detail() != nil {
		t.Fatalf("detail cache must clear with the selection")
	}
}

func TestApplySnapshotKeepsSelectionAndRefreshesDetail(t *testing.T) {
	d := NewDashboard(model.User{ID: "usr-1"})
	d.ApplySnapshot(snap(1, "inc-1"))
	gen, _ := d.Select("inc-1")
	d.ResolveDetail(gen, Detail{Incident: model.Incident{ID: "inc-1", Title: "viejo"}})

	s := snap(2, "inc-1")
	s.Incidents[0].Title = "nuevo"
	if d.ApplySnapshot(s) {
		t.Fatalf("selection should survive")
	}
	if d.Detail().Incident.Title != "nuevo" {
		t.Fatalf("cached detail should track the snapshot, got %q", d.Detail().Incident.Title)
	}
}

func TestOutOfOrderSnapshotIgnored(t *testing.T) {
	d := NewDashboard(model.User{ID: "usr-1"})
	d.ApplySnapshot(snap(5, "inc-1", "inc-2"))
	d.ApplySnapshot(snap(3, "inc-1"))
	if len(d.Incidents) != 2 {
		t.Fatalf("stale snapshot must not replace a newer one")
	}
}

func TestStaleDetailFetchDiscarded(t *testing.T) {
	d := NewDashboard(model.User{ID: "usr-1"})
	d.ApplySnapshot(snap(1, "inc-1", "inc-2"))

	gen1, _ := d.Select("inc-1")
	gen2, _ := d.Select("inc-2")

	if d.ResolveDetail(gen1, Detail{Incident: model.Incident{ID: "inc-1"}}) {
		t.Fatalf("superseded fetch must be discarded")
	}
	if d.Detail() != nil {
		t.Fatalf("stale result must not populate the pane")
	}
	if !d.ResolveDetail(gen2, Detail{Incident: model.Incident{ID: "inc-2"}}) {
		t.Fatalf("current fetch must land")
	}
	if d.Detail().Incident.ID != "inc-2" {
		t.Fatalf("pane shows %q", d.Detail().Incident.ID)
	}
}

func TestReselectSameIncidentKeepsCachedThread(t *testing.T) {
	d := NewDashboard(model.User{ID: "usr-1"})
	d.ApplySnapshot(snap(1, "inc-1"))

	gen, fetch := d.Select("inc-1")
	if !fetch {
		t.Fatalf("first selection must ask for a fetch")
	}
	d.ResolveDetail(gen, Detail{
		Incident:       model.Incident{ID: "inc-1"},
		Communications: []model.Communication{{ID: "com-1", Message: "hola"}},
	})

	gen2, fetch := d.Select("inc-1")
	if fetch {
		t.Fatalf("re-selecting the same incident must not refetch")
	}
	if gen2 != gen {
		t.Fatalf("generation bumped on reselect: %d -> %d", gen, gen2)
	}
	det := d.Detail()
	if det == nil || len(det.Communications) != 1 {
		t.Fatalf("cached thread lost on reselect: %+v", det)
	}

	// A forced reload with the returned generation still lands.
	fresh := Detail{
		Incident:       model.Incident{ID: "inc-1"},
		Communications: []model.Communication{{ID: "com-1"}, {ID: "com-2"}},
	}
	if !d.ResolveDetail(gen2, fresh) {
		t.Fatalf("forced reload must be accepted")
	}
	if len(d.Detail().Communications) != 2 {
		t.Fatalf("forced reload did not replace the thread")
	}
}

func TestSelectUnknownIDIsNoop(t *testing.T) {
	d := NewDashboard(model.User{ID: "usr-1"})
	d.ApplySnapshot(snap(1, "inc-1"))

	if _, fetch := d.Select("inc-fantasma"); fetch {
		t.Fatalf("unknown id must not start a fetch")
	}
	if d.Selected() != "" {
		t.Fatalf("unknown id must not be selected, got %q", d.Selected())
	}

	gen, _ := d.Select("inc-1")
	d.ResolveDetail(gen, Detail{Incident: model.Incident{ID: "inc-1"}})
	if _, fetch := d.Select("inc-fantasma"); fetch {
		t.Fatalf("unknown id must not start a fetch")
	}
	if d.Selected() != "inc-1" || d.Detail() == nil {
		t.Fatalf("unknown id must leave the existing selection intact")
	}
}

func TestDueRemindersFireOncePerSession(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.Local)
	d := NewDashboard(model.User{ID: "usr-1"})
	d.Incidents = []model.Incident{
		{ID: "inc-1", Status: model.StatusOpen, DueDate: "2026-09-02"},
		{ID: "inc-2", Status: model.StatusClosed, DueDate: "2026-09-02"},
		{ID: "inc-3", Status: model.StatusOpen, DueDate: "2026-09-20"},
	}

	first := d.DueReminders(now)
	if len(first) != 1 || first[0].ID != "inc-1" {
		t.Fatalf("expected one reminder for inc-1, got %+v", first)
	}
	if again := d.DueReminders(now); len(again) != 0 {
		t.Fatalf("reminder fired twice")
	}
}

func TestToastsExpire(t *testing.T) {
	now := time.Now()
	d := NewDashboard(model.User{ID: "usr-1"})
	d.Notify(ToastInfo, "hola", now)
	if got := d.Toasts(now.Add(time.Second)); len(got) != 1 {
		t.Fatalf("live toast pruned early")
	}
	if got := d.Toasts(now.Add(ToastTTL + time.Second)); len(got) != 0 {
		t.Fatalf("expired toast survived")
	}
}

func TestVisibleFollowsCriteria(t *testing.T) {
	d := NewDashboard(model.User{ID: "usr-1"})
	d.ApplySnapshot(snap(1, "inc-1", "inc-2"))
	d.Criteria.Search = "inc-2"
	got := d.Visible()
	if len(got) != 1 || got[0].ID != "inc-2" {
		t.Fatalf("filtered view wrong: %+v", got)
	}
}
