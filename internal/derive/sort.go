// Package derive computes the view models of the dashboard: sorted list
// order, kanban buckets, summary counts, daily metrics, calendar buckets
// and checklist state. Everything here is a pure function of its inputs;
// the session package owns when each derivation runs.
package derive

import (
	"sort"

	"incidencias-cli/internal/model"
)

// Sort returns the incidents in display order: priority rank ascending
// (critical first), then due date ascending with missing or unparseable
// due dates last. Ties keep their input order.
func Sort(ins []model.Incident) []model.Incident {
	out := make([]model.Incident, len(ins))
	copy(out, ins)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		di, oki := out[i].DueTime()
		dj, okj := out[j].DueTime()
		if oki != okj {
			return oki // a due date sorts before no due date
		}
		if !oki {
			return false
		}
		return di.Before(dj)
	})
	return out
}
