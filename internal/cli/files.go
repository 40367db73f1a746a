package cli

import (
	"github.com/spf13/cobra"

	"incidencias-cli/internal/model"
	"incidencias-cli/internal/mutate"
)

func newFilesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "files",
		Aliases: []string{"archivos"},
		Short:   "Manage an incident's attachments",
	}

	findIncident := func(cmd *cobra.Command, id string) (model.Incident, error) {
		be, _, err := requireUser(cmd.Context(), app)
		if err != nil {
			return model.Incident{}, err
		}
		defer be.Close()
		ins, err := be.Incidents(cmd.Context())
		if err != nil {
			return model.Incident{}, err
		}
		for _, in := range ins {
			if in.ID == id {
				return in, nil
			}
		}
		return model.Incident{}, notFound("incident", id)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <incident-id>",
		Short: "List attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := findIncident(cmd, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			files := in.Files
			if files == nil {
				files = []model.FileRef{}
			}
			return writeOut(cmd, app, files)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <incident-id> <path>",
		Short: "Upload a local file (images, PDF or Word, max 10MB)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			ins, err := be.Incidents(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			for _, in := range ins {
				if in.ID != args[0] {
					continue
				}
				ref, err := mutate.AddAttachment(cmd.Context(), be, in, args[1])
				if err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, ref)
			}
			return writeErr(cmd, notFound("incident", args[0]))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <incident-id> <blob-path>",
		Short: "Delete an attachment (blob first, then the list entry)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			ins, err := be.Incidents(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			for _, in := range ins {
				if in.ID != args[0] {
					continue
				}
				if err := mutate.RemoveAttachment(cmd.Context(), be, in, args[1]); err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"ok": true, "path": args[1]})
			}
			return writeErr(cmd, notFound("incident", args[0]))
		},
	})

	return cmd
}
