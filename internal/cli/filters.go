package cli

import (
	"github.com/spf13/cobra"

	"incidencias-cli/internal/filter"
	"incidencias-cli/internal/model"
	"incidencias-cli/internal/mutate"
)

func newFiltersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "filters",
		Aliases: []string{"filtros"},
		Short:   "Manage saved searches",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the current user's saved filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			be, u, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			fs, err := be.SavedFilters(cmd.Context(), u.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			if fs == nil {
				fs = []model.SavedFilter{}
			}
			return writeOut(cmd, app, fs)
		},
	})

	var name string
	var crit filter.Criteria
	var claims bool
	save := &cobra.Command{
		Use:   "save",
		Short: "Save the given criteria under a name",
		RunE: func(cmd *cobra.Command, args []string) error {
			be, u, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			crit.ClaimsOnly = claims
			saved, err := mutate.SaveFilter(cmd.Context(), be, u, name, crit)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, saved)
		},
	}
	save.Flags().StringVar(&name, "nombre", "", "Filter name")
	_ = save.MarkFlagRequired("nombre")
	addCriteriaFlags(save, &crit, &claims)
	cmd.AddCommand(save)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <filter-id>",
		Short: "Delete a saved filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, u, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			if err := mutate.DeleteFilter(cmd.Context(), be, u, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"ok": true, "id": args[0]})
		},
	})

	return cmd
}
