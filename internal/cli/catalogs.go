package cli

import (
	"github.com/spf13/cobra"

	"incidencias-cli/internal/model"
	"incidencias-cli/internal/mutate"
)

func newBuildingsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "buildings",
		Aliases: []string{"edificios"},
		Short:   "Manage the building catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List buildings",
		RunE: func(cmd *cobra.Command, args []string) error {
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			bs, err := be.Buildings(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if bs == nil {
				bs = []model.Building{}
			}
			return writeOut(cmd, app, bs)
		},
	})

	var b model.Building
	save := &cobra.Command{
		Use:   "save",
		Short: "Create or update a building",
		RunE: func(cmd *cobra.Command, args []string) error {
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			saved, err := mutate.SaveBuilding(cmd.Context(), be, b)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, saved)
		},
	}
	save.Flags().StringVar(&b.ID, "id", "", "Building id (empty creates)")
	save.Flags().StringVar(&b.Name, "nombre", "", "Display name")
	save.Flags().StringVar(&b.Address, "direccion", "", "Address")
	save.Flags().StringVar(&b.Contact, "contacto", "", "Contact")
	save.Flags().StringVar(&b.DefaultPolicyID, "poliza", "", "Default policy id for claims")
	cmd.AddCommand(save)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <building-id>",
		Short: "Delete a building",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			if err := be.DeleteBuilding(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"ok": true, "id": args[0]})
		},
	})

	return cmd
}

func newContractorsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contractors",
		Aliases: []string{"reparadores"},
		Short:   "Manage the contractor catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List contractors",
		RunE: func(cmd *cobra.Command, args []string) error {
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			cs, err := be.Contractors(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if cs == nil {
				cs = []model.Contractor{}
			}
			return writeOut(cmd, app, cs)
		},
	})

	var c model.Contractor
	save := &cobra.Command{
		Use:   "save",
		Short: "Create or update a contractor",
		RunE: func(cmd *cobra.Command, args []string) error {
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			saved, err := mutate.SaveContractor(cmd.Context(), be, c)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, saved)
		},
	}
	save.Flags().StringVar(&c.ID, "id", "", "Contractor id (empty creates)")
	save.Flags().StringVar(&c.Name, "nombre", "", "Display name")
	save.Flags().StringVar(&c.Phone, "telefono", "", "Phone")
	save.Flags().StringVar(&c.Email, "email", "", "Email")
	save.Flags().StringVar(&c.Trade, "especialidad", "", "Trade")
	cmd.AddCommand(save)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <contractor-id>",
		Short: "Delete a contractor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			if err := be.DeleteContractor(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"ok": true, "id": args[0]})
		},
	})

	return cmd
}

func newPoliciesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "policies",
		Aliases: []string{"polizas"},
		Short:   "Manage the insurance policy catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			ps, err := be.Policies(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if ps == nil {
				ps = []model.Policy{}
			}
			return writeOut(cmd, app, ps)
		},
	})

	var p model.Policy
	save := &cobra.Command{
		Use:   "save",
		Short: "Create or update a policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			saved, err := mutate.SavePolicy(cmd.Context(), be, p)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, saved)
		},
	}
	save.Flags().StringVar(&p.ID, "id", "", "Policy id (empty creates)")
	save.Flags().StringVar(&p.Name, "nombre", "", "Display name")
	save.Flags().StringVar(&p.Ref, "referencia", "", "Policy reference")
	save.Flags().StringVar(&p.Insurer, "aseguradora", "", "Insurer")
	save.Flags().StringVar(&p.Notes, "notas", "", "Notes")
	cmd.AddCommand(save)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <policy-id>",
		Short: "Delete a policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			if err := be.DeletePolicy(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"ok": true, "id": args[0]})
		},
	})

	return cmd
}
