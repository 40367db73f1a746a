package derive

import (
	"time"

	"incidencias-cli/internal/model"
)

// Metrics is the daily strip above the board. It is computed over the whole
// incident set, never the filtered view.
type Metrics struct {
	Open         int `json:"abiertas"`
	DueSoon      int `json:"proximasVencer"` // due within 48h, not closed
	NoContractor int `json:"sinReparador"`
	CreatedToday int `json:"creadasHoy"`

	// Deltas relative to the baseline; zero on the first computation.
	OpenDelta         int `json:"abiertasDelta"`
	DueSoonDelta      int `json:"proximasVencerDelta"`
	NoContractorDelta int `json:"sinReparadorDelta"`
	CreatedTodayDelta int `json:"creadasHoyDelta"`
}

// Baseline supplies the previous metric values a trend delta compares
// against. What "previous" means is a product decision, so it is pluggable:
// the session uses the previous computation, tests can pin anything.
type Baseline interface {
	// Previous returns the baseline metrics and whether one exists yet.
	Previous() (Metrics, bool)
	// Record stores the given metrics as the next baseline.
	Record(Metrics)
}

// PrevComputation is the default Baseline: each computation compares
// against the one before it within the session.
type PrevComputation struct {
	prev Metrics
	set  bool
}

func (b *PrevComputation) Previous() (Metrics, bool) { return b.prev, b.set }
func (b *PrevComputation) Record(m Metrics)          { b.prev, b.set = m, true }

// ComputeMetrics derives the daily metrics at the given instant. When a
// baseline value exists the deltas carry current minus baseline.
func ComputeMetrics(ins []model.Incident, now time.Time, baseline Baseline) Metrics {
	var m Metrics
	today := model.DayKey(now)
	local := now.Local()
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	horizon := now.Add(48 * time.Hour)
	for _, in := range ins {
		if in.Status != model.StatusClosed {
			if in.Status == model.StatusOpen || !in.Status.Known() {
				m.Open++
			}
			// Due dates are calendar days; anything due today or inside the
			// 48h window counts.
			if due, ok := in.DueTime(); ok && !due.Before(dayStart) && !due.After(horizon) {
				m.DueSoon++
			}
		}
		if in.ContractorID == "" {
			m.NoContractor++
		}
		if !in.CreatedAt.IsZero() && model.DayKey(in.CreatedAt) == today {
			m.CreatedToday++
		}
	}
	if baseline != nil {
		if prev, ok := baseline.Previous(); ok {
			m.OpenDelta = m.Open - prev.Open
			m.DueSoonDelta = m.DueSoon - prev.DueSoon
			m.NoContractorDelta = m.NoContractor - prev.NoContractor
			m.CreatedTodayDelta = m.CreatedToday - prev.CreatedToday
		}
		baseline.Record(m)
	}
	return m
}
