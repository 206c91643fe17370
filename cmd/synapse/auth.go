package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/synapse-news/synapse-client/pkg/client"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = a.prompt(cmd, "Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				password = os.Getenv("SYNAPSE_PASSWORD")
			}
			if password == "" {
				if password, err = a.prompt(cmd, "Password: "); err != nil {
					return err
				}
			}

			user, err := a.session.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", user.FullName, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or SYNAPSE_PASSWORD)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.session.Logout(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Signed out locally (server: %v)\n", err)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.session.CheckAuth(cmd.Context()) {
				return errNotSignedIn
			}
			u := a.session.User()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", u.FullName, u.Email)
			fmt.Fprintf(out, "id: %d\n", u.ID)
			if u.Birthdate != "" {
				fmt.Fprintf(out, "birthdate: %s\n", u.Birthdate)
			}
			return nil
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var reg client.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if reg.Password == "" {
				reg.Password = os.Getenv("SYNAPSE_PASSWORD")
			}
			if err := a.client.Register(cmd.Context(), reg); err != nil {
				return fmt.Errorf("register: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s, now run `synapse login`\n", reg.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&reg.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "account password (or SYNAPSE_PASSWORD)")
	return cmd
}

func newProfileCmd(a *app) *cobra.Command {
	var update client.ProfileUpdate

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the profile of the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if update == (client.ProfileUpdate{}) {
				return fmt.Errorf("nothing to update, pass --name, --email or --birthdate")
			}
			if err := a.client.UpdateProfile(cmd.Context(), update); err != nil {
				return explain(err)
			}
			if err := a.session.RefreshProfile(cmd.Context()); err != nil {
				return explain(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Profile updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&update.FullName, "name", "", "new full name")
	cmd.Flags().StringVar(&update.Email, "email", "", "new email")
	cmd.Flags().StringVar(&update.Birthdate, "birthdate", "", "birthdate (YYYY-MM-DD)")
	return cmd
}

func newPasswdCmd(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the account password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if password == "" {
				if password, err = a.prompt(cmd, "New password: "); err != nil {
					return err
				}
			}
			if err := a.client.ChangePassword(cmd.Context(), password); err != nil {
				return explain(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password changed")
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "new-password", "", "new password")
	return cmd
}
