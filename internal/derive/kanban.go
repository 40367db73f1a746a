package derive

import "incidencias-cli/internal/model"

// Board is the kanban view: one sorted column per workflow state.
type Board struct {
	Columns map[model.Status][]model.Incident
}

// Kanban partitions incidents into the three workflow columns, sorted per
// column. Records with unknown or legacy status values land in the open
// column so they stay visible on the board.
func Kanban(ins []model.Incident) Board {
	b := Board{Columns: map[model.Status][]model.Incident{}}
	for _, st := range model.KnownStatuses() {
		b.Columns[st] = nil
	}
	for _, in := range ins {
		st := in.Status
		if !st.Known() {
			st = model.StatusOpen
		}
		b.Columns[st] = append(b.Columns[st], in)
	}
	for st, col := range b.Columns {
		b.Columns[st] = Sort(col)
	}
	return b
}

// Summary holds the per-status counts of the filtered set.
type Summary struct {
	Total      int `json:"total"`
	Open       int `json:"abiertas"`
	InProgress int `json:"enProceso"`
	Closed     int `json:"cerradas"`
}

// Summarize counts incidents by workflow state. Unknown statuses count as
// open, mirroring the kanban bucketing policy.
func Summarize(ins []model.Incident) Summary {
	var s Summary
	for _, in := range ins {
		s.Total++
		switch in.Status {
		case model.StatusInProgress:
			s.InProgress++
		case model.StatusClosed:
			s.Closed++
		default:
			s.Open++
		}
	}
	return s
}
