package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gatepass-registry/gatepass/internal/app/auth"
	"github.com/gatepass-registry/gatepass/internal/app/shell"
	"github.com/gatepass-registry/gatepass/internal/domain"
)

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who is signed in on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			snap := c.dev.Session.Snapshot()
			fmt.Fprintf(out, "Launch:  %s\n", c.launch.Status)
			if !snap.Session.Authenticated() {
				fmt.Fprintln(out, "Signed out")
				return nil
			}
			p := snap.Session.Profile
			fmt.Fprintf(out, "Role:    %s\n", snap.Session.Role)
			if p.Name != "" {
				fmt.Fprintf(out, "Name:    %s\n", p.Name)
			}
			if p.Mobile != "" {
				fmt.Fprintf(out, "Mobile:  %s\n", p.Mobile)
			}
			fmt.Fprintf(out, "Tabs:    %s\n", joinTabs(shell.ViewOf(snap).Tabs))
			return nil
		},
	}
}

func joinTabs(tabs []shell.Tab) string {
	names := make([]string, len(tabs))
	for i, t := range tabs {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func (c *cli) loginCmd() *cobra.Command {
	var (
		password string
		admin    bool
	)
	cmd := &cobra.Command{
		Use:   "login <mobile>",
		Short: "Sign in and keep the session on this device",
		Long: `Sign in with a mobile number (or, for staff, an email or username).

Examples:
  gatepass login 9000000001 --password secret
  gatepass login 1234567890 --password secret --admin   # super-admin sign-in`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := domain.RoleGuard
			if admin {
				role = domain.RoleSuperAdmin
			}
			scr := auth.NewScreen(c.dev.Auth)
			defer scr.Close()
			sess, err := scr.Login(cmd.Context(), args[0], password, role)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			name := sess.Profile.Name
			if name == "" {
				name = args[0]
			}
			fmt.Fprintf(out, "Signed in as %s (%s)\n", name, sess.Role)
			fmt.Fprintf(out, "Start on: %s\n", shell.LandingTab(sess.Role))
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	cmd.Flags().BoolVar(&admin, "admin", false, "Sign in as the super-admin")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var in auth.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a guard account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scr := auth.NewScreen(c.dev.Auth)
			defer scr.Close()
			if err := scr.Register(cmd.Context(), in, domain.RoleGuard); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account created. Sign in with 'gatepass login'.")
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Full name (required)")
	cmd.Flags().StringVar(&in.Mobile, "mobile", "", "Mobile number (required)")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
	cmd.Flags().StringVarP(&in.Password, "password", "p", "", "Password (required)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.dev.Mutator.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
