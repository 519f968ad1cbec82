package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/app"
	"github.com/five82/shelf/internal/library"
	"github.com/five82/shelf/internal/output"
)

func newAdminsCommand(r *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admins",
		Short: "Manage administrator accounts",
	}
	cmd.AddCommand(newAdminsListCommand(r), newAdminsAddCommand(r), newAdminsDeleteCommand(r))
	return cmd
}

// adminSession requires a session with the admin role.
func (r *runtime) adminSession() (*app.Env, error) {
	env, err := r.session()
	if err != nil {
		return nil, err
	}
	if !env.Session.Snapshot().IsAdmin() {
		return nil, &output.CLIError{
			Summary:  "Only administrators can manage admin accounts.",
			ExitCode: output.ExitGeneral,
		}
	}
	return env, nil
}

func newAdminsListCommand(r *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List administrator accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.adminSession()
			if err != nil {
				return err
			}
			if err := env.Admins.Refresh(cmd.Context()); err != nil {
				return reported(err)
			}
			admins := env.Admins.All()
			if len(admins) == 0 {
				r.printer.Info("No administrator accounts.")
				return nil
			}
			tbl := r.printer.NewTable("ID", "Username")
			for _, a := range admins {
				tbl.AddRow(string(a.UserID), string(a.Username))
			}
			return tbl.Render()
		},
	}
}

func newAdminsAddCommand(r *runtime) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an administrator account",
		Args:  exactArgs(1, "a username"),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.adminSession()
			if err != nil {
				return err
			}
			if password == "" {
				if password, err = r.readLine("Password for " + args[0] + ": "); err != nil {
					return err
				}
			}
			username := strings.TrimSpace(args[0])
			if username == "" || password == "" {
				return &library.ValidationError{Fields: []string{"username", "password"}}
			}
			return reported(env.Admins.Add(cmd.Context(), username, password))
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newAdminsDeleteCommand(r *runtime) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an administrator account",
		Args:  exactArgs(1, "a username"),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := r.adminSession()
			if err != nil {
				return err
			}
			if err := env.Admins.Refresh(cmd.Context()); err != nil {
				return reported(err)
			}
			var target *library.Admin
			for _, a := range env.Admins.All() {
				if strings.EqualFold(string(a.Username), strings.TrimSpace(args[0])) || string(a.UserID) == args[0] {
					target = &a
					break
				}
			}
			if target == nil {
				return notFound("no administrator named %s", args[0])
			}
			ok, err := r.confirm(yes, fmt.Sprintf("Delete administrator %s?", target.Username))
			if err != nil {
				return err
			}
			if !ok {
				r.printer.Info("Cancelled.")
				return nil
			}
			return reported(env.Admins.Delete(cmd.Context(), target.UserID))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
