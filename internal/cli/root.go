// Package cli is the scriptable surface: every dashboard operation as a
// cobra command with JSON output, plus the entry point into the TUI.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"incidencias-cli/internal/backend"
	"incidencias-cli/internal/format"
	"incidencias-cli/internal/model"
	"incidencias-cli/internal/tui"
)

type App struct {
	Dir        string
	PrettyJSON bool
	Format     string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "incidencias",
		Short:        "Panel de incidencias de mantenimiento (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive dashboard
  incidencias

  # Scriptable commands
  incidencias list --estado abierta --prioridad alta
  incidencias show inc-abc123de
  incidencias export --out informe.csv

  # Serve the dashboard to a browser
  incidencias web --listen 127.0.0.1:4321
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("INCIDENCIAS_DIR", ""), "Path to the workspace dir (default: ~/.incidencias)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("INCIDENCIAS_FORMAT", "json"), "Output format (json|edn)")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newUsersCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newCreateCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newSetStatusCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newChecklistCmd(app))
	cmd.AddCommand(newFilesCmd(app))
	cmd.AddCommand(newCommsCmd(app))
	cmd.AddCommand(newBuildingsCmd(app))
	cmd.AddCommand(newContractorsCmd(app))
	cmd.AddCommand(newPoliciesCmd(app))
	cmd.AddCommand(newFiltersCmd(app))
	cmd.AddCommand(newSummaryCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newWebCmd(app))

	return cmd
}

func runTUI(app *App) error {
	be, err := openBackend(context.Background(), app)
	if err != nil {
		return err
	}
	defer be.Close()
	return tui.Run(be)
}

func (app *App) workspaceDir() (string, error) {
	if strings.TrimSpace(app.Dir) != "" {
		return app.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".incidencias"), nil
}

func openBackend(ctx context.Context, app *App) (*backend.Local, error) {
	dir, err := app.workspaceDir()
	if err != nil {
		return nil, err
	}
	return backend.Open(ctx, dir)
}

// requireUser opens the backend and insists on an active session.
func requireUser(ctx context.Context, app *App) (*backend.Local, model.User, error) {
	be, err := openBackend(ctx, app)
	if err != nil {
		return nil, model.User{}, err
	}
	u, ok := be.CurrentUser(ctx)
	if !ok {
		_ = be.Close()
		return nil, model.User{}, fmt.Errorf("%w; run `incidencias login` first", backend.ErrNoSession)
	}
	return be, u, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
