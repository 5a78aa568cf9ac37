package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gatepass-registry/gatepass/internal/app/auth"
	"github.com/gatepass-registry/gatepass/internal/app/shell"
	"github.com/gatepass-registry/gatepass/internal/domain"
)

func (c *cli) staffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Admin staff commands (super-admin only)",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.open(cmd.Context()); err != nil {
				return err
			}
			return c.requireTab(shell.TabAdmin)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List admin accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			members, err := c.dev.Staff.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tEMAIL\tMOBILE\tID")
			for _, m := range members {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.DisplayName(), m.Email, m.Mobile, m.ID)
			}
			return tw.Flush()
		},
	}

	var in auth.StaffInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.dev.Staff.Add(cmd.Context(), in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created\n", in.Username)
			return nil
		},
	}
	add.Flags().StringVar(&in.Username, "username", "", "Username (required)")
	add.Flags().StringVar(&in.Email, "email", "", "Email (required)")
	add.Flags().StringVar(&in.Mobile, "mobile", "", "Mobile number")
	add.Flags().StringVarP(&in.Password, "password", "p", "", "Password (required)")

	remove := &cobra.Command{
		Use:   "remove <staff-id>",
		Short: "Delete an admin account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.dev.Staff.Remove(cmd.Context(), domain.StaffID(args[0])); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Removed")
			return nil
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}
