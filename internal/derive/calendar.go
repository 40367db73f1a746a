package derive

import (
	"sort"
	"time"

	"incidencias-cli/internal/model"
)

// UpcomingCap bounds the "next 7 days" shortlist.
const UpcomingCap = 5

// CalendarBuckets groups non-closed incidents with a parseable due date by
// local calendar day (YYYY-MM-DD key) for the month grid.
func CalendarBuckets(ins []model.Incident) map[string][]model.Incident {
	buckets := map[string][]model.Incident{}
	for _, in := range ins {
		if in.Status == model.StatusClosed {
			continue
		}
		due, ok := in.DueTime()
		if !ok {
			continue
		}
		key := model.DayKey(due)
		buckets[key] = append(buckets[key], in)
	}
	return buckets
}

// Upcoming returns the non-closed incidents due within [now, now+7d],
// sorted by due date ascending and capped at UpcomingCap entries.
func Upcoming(ins []model.Incident, now time.Time) []model.Incident {
	local := now.Local()
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	limit := now.Add(7 * 24 * time.Hour)

	var out []model.Incident
	for _, in := range ins {
		if in.Status == model.StatusClosed {
			continue
		}
		due, ok := in.DueTime()
		if !ok {
			continue
		}
		if due.Before(dayStart) || due.After(limit) {
			continue
		}
		out = append(out, in)
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, _ := out[i].DueTime()
		dj, _ := out[j].DueTime()
		return di.Before(dj)
	})
	if len(out) > UpcomingCap {
		out = out[:UpcomingCap]
	}
	return out
}
