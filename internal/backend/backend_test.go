package backend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"incidencias-cli/internal/model"
)

func openTestBackend(t *testing.T) *Local {
	t.Helper()
	l, err := Open(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestSignInSentinels(t *testing.T) {
	l := openTestBackend(t)
	ctx := context.Background()

	if _, err := l.RegisterUser(ctx, "Ana@Ejemplo.com", "secreto1", "Ana"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := l.SignIn(ctx, "nadie@ejemplo.com", "x"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown email: want ErrUserNotFound, got %v", err)
	}
	if _, err := l.SignIn(ctx, "ana@ejemplo.com", "mal"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("bad password: want ErrWrongPassword, got %v", err)
	}
	if _, err := l.SignIn(ctx, "sin-arroba", "x"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("malformed email: want ErrInvalidEmail, got %v", err)
	}

	u, err := l.SignIn(ctx, "ANA@ejemplo.com", "secreto1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if u.Email != "ana@ejemplo.com" {
		t.Fatalf("email should normalize to lowercase: %q", u.Email)
	}
	if got, ok := l.CurrentUser(ctx); !ok || got.ID != u.ID {
		t.Fatalf("current user not set after sign in")
	}
}

func TestSessionSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	l, err := Open(ctx, dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := l.RegisterUser(ctx, "ana@ejemplo.com", "secreto1", "Ana"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := l.SignIn(ctx, "ana@ejemplo.com", "secreto1"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	_ = l.Close()

	l2, err := Open(ctx, dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l2.Close()
	u, ok := l2.CurrentUser(ctx)
	if !ok || u.Email != "ana@ejemplo.com" {
		t.Fatalf("persisted session not restored: ok=%v user=%+v", ok, u)
	}

	if err := l2.SignOut(ctx); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, ok := l2.CurrentUser(ctx); ok {
		t.Fatalf("session should be gone after sign out")
	}
}

func TestSaveIncidentAssignsIDAndTimestamps(t *testing.T) {
	l := openTestBackend(t)
	ctx := context.Background()

	saved, err := l.SaveIncident(ctx, model.Incident{Title: "Fuga", Status: model.StatusOpen})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(saved.ID, "inc-") {
		t.Fatalf("id prefix: %q", saved.ID)
	}
	if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not stamped: %+v", saved)
	}
	if saved.ClosedAt != nil {
		t.Fatalf("open incident must not carry a closed date")
	}
}

func TestClosedDateFollowsStatus(t *testing.T) {
	l := openTestBackend(t)
	ctx := context.Background()

	saved, err := l.SaveIncident(ctx, model.Incident{Title: "Fuga", Status: model.StatusOpen})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := l.SetIncidentStatus(ctx, saved.ID, model.StatusClosed); err != nil {
		t.Fatalf("close: %v", err)
	}
	got, err := l.getIncident(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ClosedAt == nil {
		t.Fatalf("closing must set the closed date")
	}

	if err := l.SetIncidentStatus(ctx, saved.ID, model.StatusOpen); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err = l.getIncident(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ClosedAt != nil {
		t.Fatalf("reopening must clear the closed date")
	}
}

func TestIncidentsOrderedNewestFirst(t *testing.T) {
	l := openTestBackend(t)
	ctx := context.Background()

	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := l.SaveIncident(ctx, model.Incident{Title: "vieja", Status: model.StatusOpen, CreatedAt: old}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := l.SaveIncident(ctx, model.Incident{Title: "nueva", Status: model.StatusOpen}); err != nil {
		t.Fatalf("save: %v", err)
	}

	ins, err := l.Incidents(ctx)
	if err != nil {
		t.Fatalf("incidents: %v", err)
	}
	if len(ins) != 2 || ins[0].Title != "nueva" {
		t.Fatalf("expected newest first, got %+v", ins)
	}
}

func TestSubscribeDeliversAndPushes(t *testing.T) {
	l := openTestBackend(t)
	ctx := context.Background()

	if _, err := l.SaveIncident(ctx, model.Incident{Title: "Fuga", Status: model.StatusOpen}); err != nil {
		t.Fatalf("save: %v", err)
	}

	snaps := make(chan Snapshot, 8)
	cancel := l.Subscribe(func(s Snapshot) { snaps <- s })
	defer cancel()

	first := recvSnap(t, snaps)
	if len(first.Incidents) != 1 {
		t.Fatalf("initial snapshot should carry the collection, got %d", len(first.Incidents))
	}

	if _, err := l.SaveIncident(ctx, model.Incident{Title: "Otra", Status: model.StatusOpen}); err != nil {
		t.Fatalf("save: %v", err)
	}
	second := recvSnap(t, snaps)
	for len(second.Incidents) < 2 {
		second = recvSnap(t, snaps)
	}
	if second.Seq <= first.Seq {
		t.Fatalf("seq must advance: %d then %d", first.Seq, second.Seq)
	}
}

func TestSubscribePrimesOnlyTheNewSubscriber(t *testing.T) {
	l := openTestBackend(t)
	ctx := context.Background()

	if _, err := l.SaveIncident(ctx, model.Incident{Title: "Fuga", Status: model.StatusOpen}); err != nil {
		t.Fatalf("save: %v", err)
	}

	first := make(chan Snapshot, 8)
	cancel1 := l.Subscribe(func(s Snapshot) { first <- s })
	defer cancel1()
	recvSnap(t, first)

	second := make(chan Snapshot, 8)
	cancel2 := l.Subscribe(func(s Snapshot) { second <- s })
	defer cancel2()
	recvSnap(t, second)

	select {
	case s := <-first:
		t.Fatalf("existing subscriber got the newcomer's priming snapshot (seq %d)", s.Seq)
	case <-time.After(200 * time.Millisecond):
	}
}

func recvSnap(t *testing.T, ch chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a snapshot")
		return Snapshot{}
	}
}

func TestDeleteIncidentRemovesThread(t *testing.T) {
	l := openTestBackend(t)
	ctx := context.Background()

	saved, err := l.SaveIncident(ctx, model.Incident{Title: "Fuga", Status: model.StatusOpen})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := l.AddCommunication(ctx, model.Communication{IncidentID: saved.ID, Type: "nota", Message: "hola"}); err != nil {
		t.Fatalf("add comm: %v", err)
	}

	if err := l.DeleteIncident(ctx, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var nf NotFoundError
	if err := l.SetIncidentStatus(ctx, saved.ID, model.StatusClosed); !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError after delete, got %v", err)
	}
	comms, err := l.Communications(ctx, saved.ID)
	if err != nil {
		t.Fatalf("comms: %v", err)
	}
	if len(comms) != 0 {
		t.Fatalf("thread should be gone, got %d entries", len(comms))
	}
}

func TestCommunicationsNewestFirst(t *testing.T) {
	l := openTestBackend(t)
	ctx := context.Background()

	saved, err := l.SaveIncident(ctx, model.Incident{Title: "Fuga", Status: model.StatusOpen})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	old := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	if _, err := l.AddCommunication(ctx, model.Communication{IncidentID: saved.ID, Message: "primera", CreatedAt: old}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := l.AddCommunication(ctx, model.Communication{IncidentID: saved.ID, Message: "segunda"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	comms, err := l.Communications(ctx, saved.ID)
	if err != nil {
		t.Fatalf("comms: %v", err)
	}
	if len(comms) != 2 || comms[0].Message != "segunda" {
		t.Fatalf("expected newest first, got %+v", comms)
	}

	if _, err := l.AddCommunication(ctx, model.Communication{IncidentID: "inc-fantasma", Message: "x"}); err == nil {
		t.Fatalf("comm on a missing incident must fail")
	}
}

func TestSavedFiltersArePerUser(t *testing.T) {
	l := openTestBackend(t)
	ctx := context.Background()

	if _, err := l.SaveFilter(ctx, model.SavedFilter{UserID: "usr-1", Name: "Urgentes"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	f2, err := l.SaveFilter(ctx, model.SavedFilter{UserID: "usr-2", Name: "Siniestros"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := l.SavedFilters(ctx, "usr-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Urgentes" {
		t.Fatalf("usr-1 filters: %+v", got)
	}

	// Deleting through the wrong user must not touch the row.
	var nf NotFoundError
	if err := l.DeleteFilter(ctx, "usr-1", f2.ID); !errors.As(err, &nf) {
		t.Fatalf("cross-user delete: want NotFoundError, got %v", err)
	}
	if err := l.DeleteFilter(ctx, "usr-2", f2.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestCatalogRoundTrip(t *testing.T) {
	l := openTestBackend(t)
	ctx := context.Background()

	b, err := l.SaveBuilding(ctx, model.Building{Name: "Gran Vía 10", DefaultPolicyID: "POL-1"})
	if err != nil {
		t.Fatalf("save building: %v", err)
	}
	if !strings.HasPrefix(b.ID, "edi-") {
		t.Fatalf("building id prefix: %q", b.ID)
	}

	all, err := l.Buildings(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].DefaultPolicyID != "POL-1" {
		t.Fatalf("round trip lost fields: %+v", all)
	}

	var nf NotFoundError
	if err := l.DeleteBuilding(ctx, "edi-no-existe"); !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
	if err := l.DeleteBuilding(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestBlobs(t *testing.T) {
	l := openTestBackend(t)
	ctx := context.Background()

	url, err := l.Upload(ctx, "incidencias/inc-1/foto.jpg", []byte("jpegdata"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(url, "file://") {
		t.Fatalf("url: %q", url)
	}

	refs, err := l.List(ctx, "incidencias/inc-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(refs) != 1 || refs[0].Name != "foto.jpg" {
		t.Fatalf("listing: %+v", refs)
	}

	if _, err := l.Upload(ctx, "../fuera.txt", []byte("x")); err == nil {
		t.Fatalf("path escape must be rejected")
	}

	if err := l.Delete(ctx, "incidencias/inc-1/foto.jpg"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// Deleting a blob that is already gone is not an error.
	if err := l.Delete(ctx, "incidencias/inc-1/foto.jpg"); err != nil {
		t.Fatalf("second delete should be benign: %v", err)
	}
}

func TestEventsRecordWrites(t *testing.T) {
	l := openTestBackend(t)
	ctx := context.Background()

	saved, err := l.SaveIncident(ctx, model.Incident{Title: "Fuga", Status: model.StatusOpen})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := l.SetIncidentStatus(ctx, saved.ID, model.StatusClosed); err != nil {
		t.Fatalf("close: %v", err)
	}

	evs, err := l.Events(ctx, 0)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	if evs[0].Type != "incident.created" || evs[1].Type != "incident.status" {
		t.Fatalf("event types: %s, %s", evs[0].Type, evs[1].Type)
	}
	if evs[0].EntityID != saved.ID {
		t.Fatalf("entity id: %q", evs[0].EntityID)
	}
}
