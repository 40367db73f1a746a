// Package session holds the signed-in dashboard state: the latest incident
// snapshot, the active filter, the selection and its detail cache, saved
// filters and catalogs. It is plain state with methods, independent of any
// UI toolkit, so the coordination rules are testable on their own.
package session

import (
	"time"

	"incidencias-cli/internal/backend"
	"incidencias-cli/internal/derive"
	"incidencias-cli/internal/filter"
	"incidencias-cli/internal/model"
)

// ViewMode is the board presentation.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewKanban
	ViewAgenda
)

// Detail is everything the detail pane needs for one incident.
type Detail struct {
	Incident       model.Incident
	Checklist      []model.ChecklistStep
	ChecklistState map[string]bool
	Communications []model.Communication
}

// Dashboard is the per-session state. All methods are meant to run on the
// UI's single event loop; nothing here locks.
type Dashboard struct {
	User model.User

	Incidents []model.Incident // latest snapshot, creation order desc
	Criteria  filter.Criteria
	View      ViewMode

	SavedFilters []model.SavedFilter
	Buildings    []model.Building
	Contractors  []model.Contractor
	Policies     []model.Policy

	selectedID string
	detail     *Detail
	detailGen  int

	baseline derive.PrevComputation
	reminded map[string]bool
	toasts   []Toast
	snapSeq  int
}

func NewDashboard(user model.User) *Dashboard {
	return &Dashboard{User: user, reminded: map[string]bool{}}
}

// ApplySnapshot replaces the incident collection with a fresh push. When
// the selected incident no longer exists the selection drops to none; there
// is no fallback to a neighboring row. Out-of-order snapshots are ignored.
// Returns true when the selection was cleared.
func (d *Dashboard) ApplySnapshot(snap backend.Snapshot) (selectionDropped bool) {
	if snap.Seq != 0 && snap.Seq <= d.snapSeq {
		return false
	}
	if snap.Seq != 0 {
		d.snapSeq = snap.Seq
	}
	d.Incidents = snap.Incidents
	if d.selectedID == "" {
		return false
	}
	if in, ok := d.Incident(d.selectedID); ok {
		// Keep the cached detail's incident current so the pane never
		// shows staler data than the board.
		if d.detail != nil {
			d.detail.Incident = in
			d.detail.Checklist = derive.Checklist(in)
			d.detail.ChecklistState = derive.MergeChecklistState(d.detail.Checklist, in.ChecklistState)
		}
		return false
	}
	d.ClearSelection()
	return true
}

// Incident looks an incident up in the current snapshot.
func (d *Dashboard) Incident(id string) (model.Incident, bool) {
	for _, in := range d.Incidents {
		if in.ID == id {
			return in, true
		}
	}
	return model.Incident{}, false
}

// Visible applies the active filter and the board ordering.
func (d *Dashboard) Visible() []model.Incident {
	return derive.Sort(filter.Apply(d.Incidents, d.Criteria))
}

// Board partitions the visible set into kanban columns.
func (d *Dashboard) Board() derive.Board {
	return derive.Kanban(filter.Apply(d.Incidents, d.Criteria))
}

// Upcoming is the agenda shortlist over the visible set.
func (d *Dashboard) Upcoming(now time.Time) []model.Incident {
	return derive.Upcoming(filter.Apply(d.Incidents, d.Criteria), now)
}

// Calendar buckets the visible set by due day.
func (d *Dashboard) Calendar() map[string][]model.Incident {
	return derive.CalendarBuckets(filter.Apply(d.Incidents, d.Criteria))
}

// Summary counts the visible set by status.
func (d *Dashboard) Summary() derive.Summary {
	return derive.Summarize(filter.Apply(d.Incidents, d.Criteria))
}

// Metrics computes the daily strip over the whole collection, with deltas
// against the previous computation in this session.
func (d *Dashboard) Metrics(now time.Time) derive.Metrics {
	return derive.ComputeMetrics(d.Incidents, now, &d.baseline)
}

// Select marks an incident as selected and returns the generation for the
// detail fetch the caller should start; fetch is false when no fetch is
// needed. Selecting an id that is not in the current snapshot is a no-op.
// Re-selecting the current incident keeps its cached detail and thread
// instead of invalidating them; a caller that wants fresh data anyway (for
// example after posting a communication) can still fetch with the returned
// generation, and ResolveDetail will accept it. A later Select of a
// different incident invalidates fetches started by earlier ones.
func (d *Dashboard) Select(id string) (gen int, fetch bool) {
	if _, ok := d.Incident(id); !ok {
		return d.detailGen, false
	}
	if id == d.selectedID && d.detail != nil {
		return d.detailGen, false
	}
	d.selectedID = id
	d.detail = nil
	d.detailGen++
	return d.detailGen, true
}

func (d *Dashboard) ClearSelection() {
	d.selectedID = ""
	d.detail = nil
	d.detailGen++
}

// Selected returns the selected incident id, "" when nothing is selected.
func (d *Dashboard) Selected() string { return d.selectedID }

// ResolveDetail installs a fetched detail if it is still the one the user
// is waiting for. Results from superseded fetches are discarded.
func (d *Dashboard) ResolveDetail(gen int, det Detail) bool {
	if gen != d.detailGen || d.selectedID == "" || det.Incident.ID != d.selectedID {
		return false
	}
	det.Checklist = derive.Checklist(det.Incident)
	det.ChecklistState = derive.MergeChecklistState(det.Checklist, det.Incident.ChecklistState)
	d.detail = &det
	return true
}

// Detail returns the cached detail for the selection, nil while loading or
// when nothing is selected.
func (d *Dashboard) Detail() *Detail { return d.detail }

// DueReminders returns the incidents due within 48h that the session has
// not reminded about yet, and marks them so each fires at most once.
func (d *Dashboard) DueReminders(now time.Time) []model.Incident {
	local := now.Local()
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	horizon := now.Add(48 * time.Hour)

	var out []model.Incident
	for _, in := range d.Incidents {
		if in.Status == model.StatusClosed || d.reminded[in.ID] {
			continue
		}
		due, ok := in.DueTime()
		if !ok || due.Before(dayStart) || due.After(horizon) {
			continue
		}
		d.reminded[in.ID] = true
		out = append(out, in)
	}
	return derive.Sort(out)
}

// BuildingName resolves a building id to its display name for list rows.
func (d *Dashboard) BuildingName(id string) string {
	for _, b := range d.Buildings {
		if b.ID == id {
			return b.DisplayName()
		}
	}
	return id
}

// ContractorName resolves a contractor id to its display name.
func (d *Dashboard) ContractorName(id string) string {
	for _, c := range d.Contractors {
		if c.ID == id {
			return c.DisplayName()
		}
	}
	return id
}
