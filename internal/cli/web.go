package cli

import (
	"github.com/spf13/cobra"

	"incidencias-cli/internal/webtui"
)

func newWebCmd(app *App) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the dashboard TUI to a browser terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := app.workspaceDir()
			if err != nil {
				return err
			}
			return webtui.Serve(cmd.Context(), webtui.Options{
				Listen:       listen,
				WorkspaceDir: dir,
			})
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:4321", "Listen address")
	return cmd
}
