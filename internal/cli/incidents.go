package cli

import (
	"time"

	"github.com/spf13/cobra"

	"incidencias-cli/internal/derive"
	"incidencias-cli/internal/filter"
	"incidencias-cli/internal/model"
	"incidencias-cli/internal/mutate"
)

func addCriteriaFlags(cmd *cobra.Command, crit *filter.Criteria, claims *bool) {
	cmd.Flags().StringVar(&crit.Search, "busqueda", "", "Free text over title and claim ref")
	cmd.Flags().StringVar((*string)(&crit.Status), "estado", "", "abierta|en_proceso|cerrada")
	cmd.Flags().StringVar((*string)(&crit.Priority), "prioridad", "", "baja|media|alta|critica")
	cmd.Flags().StringVar(&crit.BuildingID, "edificio", "", "Building id")
	cmd.Flags().StringVar(&crit.ContractorID, "reparador", "", "Contractor id")
	cmd.Flags().BoolVar(claims, "siniestros", false, "Only insurance claims")
	cmd.Flags().StringSliceVar(&crit.Tags, "etiqueta", nil, "Tag (repeatable; all must match)")
	cmd.Flags().StringVar(&crit.From, "desde", "", "Created on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&crit.To, "hasta", "", "Created on or before (YYYY-MM-DD)")
}

func newListCmd(app *App) *cobra.Command {
	var crit filter.Criteria
	var claims bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List incidents (filtered, board order)",
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
			out := derive.Sort(filter.Apply(ins, crit))
			if out == nil {
				out = []model.Incident{}
			}
			return writeOut(cmd, app, out)
		},
	}
	addCriteriaFlags(cmd, &crit, &claims)
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <incident-id>",
		Short: "Show one incident with its checklist and thread",
		Args:  cobra.ExactArgs(1),
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
			var in model.Incident
			found := false
			for _, cand := range ins {
				if cand.ID == args[0] {
					in, found = cand, true
					break
				}
			}
			if !found {
				return writeErr(cmd, notFound("incident", args[0]))
			}
			comms, err := be.Communications(cmd.Context(), in.ID)
			if err != nil {
				return writeErr(cmd, err)
			}
			steps := derive.Checklist(in)
			return writeOut(cmd, app, map[string]any{
				"incidencia":      in,
				"checklist":       steps,
				"checklistEstado": derive.MergeChecklistState(steps, in.ChecklistState),
				"comunicaciones":  comms,
			})
		},
	}
}

type incidentFlags struct {
	title, description            string
	status, priority              string
	buildingID, contractorID      string
	tags                          []string
	isClaim                       bool
	policyID, claimRef, dueDate   string
}

func (f *incidentFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "titulo", "", "Title")
	cmd.Flags().StringVar(&f.description, "descripcion", "", "Description (min 15 chars when set)")
	cmd.Flags().StringVar(&f.status, "estado", "", "abierta|en_proceso|cerrada")
	cmd.Flags().StringVar(&f.priority, "prioridad", "", "baja|media|alta|critica")
	cmd.Flags().StringVar(&f.buildingID, "edificio", "", "Building id")
	cmd.Flags().StringVar(&f.contractorID, "reparador", "", "Contractor id")
	cmd.Flags().StringSliceVar(&f.tags, "etiqueta", nil, "Tag (repeatable)")
	cmd.Flags().BoolVar(&f.isClaim, "siniestro", false, "Mark as insurance claim")
	cmd.Flags().StringVar(&f.policyID, "poliza", "", "Policy id (claims default to the building's policy)")
	cmd.Flags().StringVar(&f.claimRef, "referencia", "", "Claim reference")
	cmd.Flags().StringVar(&f.dueDate, "fecha-limite", "", "Due date (YYYY-MM-DD)")
}

func (f *incidentFlags) apply(cmd *cobra.Command, in *model.Incident) {
	set := cmd.Flags().Changed
	if set("titulo") {
		in.Title = f.title
	}
	if set("descripcion") {
		in.Description = f.description
	}
	if set("estado") {
		in.Status = model.Status(f.status)
	}
	if set("prioridad") {
		in.Priority = model.Priority(f.priority)
	}
	if set("edificio") {
		in.BuildingID = f.buildingID
	}
	if set("reparador") {
		in.ContractorID = f.contractorID
	}
	if set("etiqueta") {
		in.Tags = f.tags
	}
	if set("siniestro") {
		in.IsClaim = f.isClaim
	}
	if set("poliza") {
		in.PolicyID = f.policyID
	}
	if set("referencia") {
		in.ClaimRef = f.claimRef
	}
	if set("fecha-limite") {
		in.DueDate = f.dueDate
	}
}

func newCreateCmd(app *App) *cobra.Command {
	var f incidentFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an incident",
		RunE: func(cmd *cobra.Command, args []string) error {
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			var in model.Incident
			f.apply(cmd, &in)
			buildings, err := be.Buildings(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			saved, err := mutate.CreateIncident(cmd.Context(), be, in, buildings, time.Now())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, saved)
		},
	}
	f.bind(cmd)
	return cmd
}

func newEditCmd(app *App) *cobra.Command {
	var f incidentFlags
	cmd := &cobra.Command{
		Use:   "edit <incident-id>",
		Short: "Edit an incident (only the given flags change)",
		Args:  cobra.ExactArgs(1),
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
			var in model.Incident
			found := false
			for _, cand := range ins {
				if cand.ID == args[0] {
					in, found = cand, true
					break
				}
			}
			if !found {
				return writeErr(cmd, notFound("incident", args[0]))
			}
			f.apply(cmd, &in)
			buildings, err := be.Buildings(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			saved, err := mutate.EditIncident(cmd.Context(), be, in, buildings, time.Now())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, saved)
		},
	}
	f.bind(cmd)
	return cmd
}

func newSetStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <incident-id> <abierta|en_proceso|cerrada>",
		Short: "Move an incident between workflow states",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			if err := mutate.SetStatus(cmd.Context(), be, args[0], model.Status(args[1])); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"ok": true, "id": args[0], "estado": args[1]})
		},
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <incident-id>",
		Short: "Delete an incident with its thread and files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return writeErr(cmd, errConfirmRequired)
			}
			be, _, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			if err := mutate.DeleteIncident(cmd.Context(), be, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"ok": true, "id": args[0]})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}

func newChecklistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checklist",
		Short: "Inspect or toggle an incident's checklist",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <incident-id> <step-id>",
		Short: "Flip one checklist step",
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
				steps := derive.Checklist(in)
				state := derive.MergeChecklistState(steps, in.ChecklistState)
				if _, ok := state[args[1]]; !ok {
					return writeErr(cmd, notFound("checklist step", args[1]))
				}
				state[args[1]] = !state[args[1]]
				if err := mutate.PersistChecklist(cmd.Context(), be, in.ID, state); err != nil {
					return writeErr(cmd, err)
				}
				return writeOut(cmd, app, map[string]any{"ok": true, "paso": args[1], "completado": state[args[1]]})
			}
			return writeErr(cmd, notFound("incident", args[0]))
		},
	})

	return cmd
}
