package cli

import (
	"github.com/spf13/cobra"

	"incidencias-cli/internal/model"
	"incidencias-cli/internal/mutate"
)

func newCommsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comms",
		Aliases: []string{"comunicaciones"},
		Short:   "Read or append an incident's communication thread",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <incident-id>",
		Short: "List the thread, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			comms, err := be.Communications(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if comms == nil {
				comms = []model.Communication{}
			}
			return writeOut(cmd, app, comms)
		},
	})

	var commType string
	add := &cobra.Command{
		Use:   "add <incident-id> <message>",
		Short: "Append a note to the thread",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, u, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			c, err := mutate.PostCommunication(cmd.Context(), be, args[0], commType, args[1], u)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, c)
		},
	}
	add.Flags().StringVar(&commType, "tipo", "nota", "nota|llamada|email|visita")
	cmd.AddCommand(add)

	return cmd
}
