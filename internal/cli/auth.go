package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"incidencias-cli/internal/session"
)

func newLoginCmd(app *App) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := openBackend(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer be.Close()
			u, err := be.SignIn(cmd.Context(), email, password)
			if err != nil {
				return writeErr(cmd, errors.New(session.FriendlyAuthError(err)))
			}
			return writeOut(cmd, app, u)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", envOr("INCIDENCIAS_PASSWORD", ""), "Account password (or INCIDENCIAS_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := openBackend(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer be.Close()
			if err := be.SignOut(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"ok": true})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			be, u, err := requireUser(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer be.Close()
			return writeOut(cmd, app, u)
		},
	}
}

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage credential records",
	}

	var email, password, name string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			be, err := openBackend(cmd.Context(), app)
			if err != nil {
				return err
			}
			defer be.Close()
			u, err := be.RegisterUser(cmd.Context(), email, password, name)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, u)
		},
	}
	add.Flags().StringVar(&email, "email", "", "Account email")
	add.Flags().StringVar(&password, "password", "", "Account password (min 6 chars)")
	add.Flags().StringVar(&name, "name", "", "Display name")
	_ = add.MarkFlagRequired("email")
	_ = add.MarkFlagRequired("password")

	cmd.AddCommand(add)
	return cmd
}
