package cli

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/api"
	"github.com/five82/shelf/internal/app"
	"github.com/five82/shelf/internal/session"
)

func newLoginCommand(r *runtime) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session",
		Long: `Sign in with an administrator account. The session is saved and used by
every later command and by the console until 'shelf logout'.

Missing credentials are read from standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.open()
			if err != nil {
				return err
			}
			if strings.TrimSpace(username) == "" {
				if username, err = r.readLine("Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = r.readLine("Password: "); err != nil {
					return err
				}
			}

			err = env.Login(cmd.Context(), username, password)
			switch {
			case errors.Is(err, app.ErrSessionNotSaved):
				r.printer.Warning("Logged in, but the session could not be saved; it ends with this command.")
				return nil
			case err != nil:
				return err
			}
			role := env.Session.Role()
			if role == "" {
				role = "no role"
			}
			r.printer.Success("Logged in as %s (%s)", strings.TrimSpace(username), role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.open()
			if err != nil {
				return err
			}
			if err := env.Logout(); err != nil {
				r.printer.Warning("Logged out, but the saved session could not be removed.")
				return nil
			}
			r.printer.Success("Logged out.")
			return nil
		},
	}
}

func newWhoamiCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.open()
			if err != nil {
				return err
			}
			if !env.Session.IsAuthenticated() {
				return api.ErrNotAuthenticated
			}
			name, err := env.Client.Profile(cmd.Context())
			if err != nil {
				return err
			}
			s := env.Session.Snapshot()
			expires := "unknown"
			if exp, ok := session.TokenExpiry(s.Token); ok {
				expires = exp.Local().Format(time.DateTime)
			}
			r.printer.Field("Username", name)
			r.printer.Field("Role", s.Role)
			r.printer.Field("Token expires", expires)
			r.printer.Field("API", env.Client.BaseURL())
			return nil
		},
	}
}

func newPasswdCommand(r *runtime) *cobra.Command {
	var current, next, confirm string
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.open()
			if err != nil {
				return err
			}
			if !env.Session.IsAuthenticated() {
				return api.ErrNotAuthenticated
			}
			prompts := []struct {
				value  *string
				prompt string
			}{
				{&current, "Current password: "},
				{&next, "New password: "},
				{&confirm, "Confirm new password: "},
			}
			for _, p := range prompts {
				if *p.value != "" {
					continue
				}
				if *p.value, err = r.readLine(p.prompt); err != nil {
					return err
				}
			}
			if err := env.Client.ChangePassword(cmd.Context(), current, next, confirm); err != nil {
				return err
			}
			r.printer.Success("Password changed successfully!")
			return nil
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "current password")
	cmd.Flags().StringVar(&next, "new", "", "new password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "new password again")
	return cmd
}
