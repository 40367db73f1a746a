package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"incidencias-cli/internal/derive"
	"incidencias-cli/internal/export"
	"incidencias-cli/internal/filter"
)

func newSummaryCmd(app *App) *cobra.Command {
	var crit filter.Criteria
	var claims bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Counts, metrics and the upcoming agenda",
		RunE: func(cmd *cobra.Command, args []string) error {
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			crit.ClaimsOnly = claims
			ins, err := be.Incidents(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			now := time.Now()
			return writeOut(cmd, app, map[string]any{
				"resumen":  derive.Summarize(filter.Apply(ins, crit)),
				"metricas": derive.ComputeMetrics(ins, now, nil),
				"proximas": derive.Upcoming(ins, now),
			})
		},
	}
	addCriteriaFlags(cmd, &crit, &claims)
	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	var crit filter.Criteria
	var claims bool
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered incidents as CSV (UTF-8 with BOM)",
		RunE: func(cmd *cobra.Command, args []string) error {
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			crit.ClaimsOnly = claims
			ins, err := be.Incidents(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			csv := export.CSV(derive.Sort(filter.Apply(ins, crit)))
			if out == "" {
				out = export.CSVFilename(time.Now())
			}
			if out == "-" {
				_, err := cmd.OutOrStdout().Write([]byte(csv))
				return err
			}
			if err := os.WriteFile(out, []byte(csv), 0o644); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"ok": true, "file": out})
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output file (default incidencias-<timestamp>.csv, - for stdout)")
	addCriteriaFlags(cmd, &crit, &claims)
	return cmd
}

func newEventsCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the change log, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			evs, err := be.Events(cmd.Context(), limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, evs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Max events (0 = all)")
	return cmd
}
