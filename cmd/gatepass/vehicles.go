package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gatepass-registry/gatepass/internal/app/resolver"
	"github.com/gatepass-registry/gatepass/internal/app/shell"
	"github.com/gatepass-registry/gatepass/internal/app/vehicles"
	"github.com/gatepass-registry/gatepass/internal/domain"
)

func (c *cli) searchCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Look up a vehicle by plate, pass number or record id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			screen := resolver.NewScreen(c.dev.Resolver, c.dev.Session)
			defer screen.Close()

			out := cmd.OutOrStdout()
			if all {
				vs, err := screen.SearchAll(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if len(vs) == 0 {
					fmt.Fprintln(out, "No vehicle found")
					return nil
				}
				printVehicleTable(out, vs)
				return nil
			}

			res, err := screen.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !res.Found {
				fmt.Fprintln(out, "No vehicle found")
				return nil
			}
			printVehicle(out, res.Vehicle)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "List every match instead of resolving one record")
	return cmd
}

func (c *cli) vehiclesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicles",
		Short: "Vehicle record commands",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all vehicle records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vs, err := c.dev.Vehicles.List(cmd.Context())
			if err != nil {
				return err
			}
			printVehicleTable(cmd.OutOrStdout(), vs)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <record-id>",
		Short: "Show one vehicle record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.dev.Vehicles.Get(cmd.Context(), domain.VehicleID(args[0]))
			if err != nil {
				return err
			}
			printVehicle(cmd.OutOrStdout(), v)
			return nil
		},
	}

	var in vehicles.CreateInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a vehicle pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireTab(shell.TabAddVehicle); err != nil {
				return err
			}
			v, err := c.dev.Vehicles.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", v.Plate(), v.ID)
			return nil
		},
	}
	fields := vehicleFlags{
		VehicleNumber: &in.VehicleNumber, PassNumber: &in.PassNumber, FlatNumber: &in.FlatNumber,
		OwnerName: &in.OwnerName, OwnerContact: &in.OwnerContact, DLOrRCNumber: &in.DLOrRCNumber,
		AlternateContact: &in.AlternateContact, Email: &in.Email, PermanentAddress: &in.PermanentAddress,
		FlatOwnerName: &in.FlatOwnerName, VehicleType: &in.VehicleType, ValidTill: &in.ValidTill,
	}
	fields.register(add.Flags())

	var edits vehicles.CreateInput
	update := &cobra.Command{
		Use:   "update <query>",
		Short: "Edit the record a plate, pass number or record id resolves to",
		Long: `Edit the record a plate, pass number or record id resolves to. Only the flags
given are changed; pass an empty value to clear an optional field.

Example:
  gatepass vehicles update KA01AB1234 --owner-contact 9800000000 --email ""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireTab(shell.TabUpdate); err != nil {
				return err
			}
			scr := c.dev.Vehicles.OpenUpdateScreen()
			defer scr.Close()
			v, err := scr.Update(cmd.Context(), args[0], patchFromFlags(cmd.Flags(), edits))
			if err != nil {
				return err
			}
			printVehicle(cmd.OutOrStdout(), v)
			return nil
		},
	}
	editFields := vehicleFlags{
		VehicleNumber: &edits.VehicleNumber, PassNumber: &edits.PassNumber, FlatNumber: &edits.FlatNumber,
		OwnerName: &edits.OwnerName, OwnerContact: &edits.OwnerContact, DLOrRCNumber: &edits.DLOrRCNumber,
		AlternateContact: &edits.AlternateContact, Email: &edits.Email, PermanentAddress: &edits.PermanentAddress,
		FlatOwnerName: &edits.FlatOwnerName, VehicleType: &edits.VehicleType, ValidTill: &edits.ValidTill,
	}
	editFields.register(update.Flags())

	del := &cobra.Command{
		Use:   "delete <record-id>",
		Short: "Delete a vehicle record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireTab(shell.TabUpdate); err != nil {
				return err
			}
			if err := c.dev.Vehicles.Delete(cmd.Context(), domain.VehicleID(args[0])); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted")
			return nil
		},
	}

	cmd.AddCommand(list, show, add, update, del)
	return cmd
}

type vehicleFlags struct {
	VehicleNumber, PassNumber, FlatNumber, OwnerName, OwnerContact *string
	DLOrRCNumber, AlternateContact, Email, PermanentAddress        *string
	FlatOwnerName, VehicleType, ValidTill                          *string
}

func (f vehicleFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(f.VehicleNumber, "vehicle-number", "", "Plate number")
	fs.StringVar(f.PassNumber, "pass-number", "", "Pass number")
	fs.StringVar(f.FlatNumber, "flat-number", "", "Flat number")
	fs.StringVar(f.OwnerName, "owner-name", "", "Vehicle owner")
	fs.StringVar(f.OwnerContact, "owner-contact", "", "Owner contact number")
	fs.StringVar(f.DLOrRCNumber, "dl-rc", "", "Driving licence or RC number")
	fs.StringVar(f.AlternateContact, "alternate-contact", "", "Alternate contact number")
	fs.StringVar(f.Email, "email", "", "Owner email")
	fs.StringVar(f.PermanentAddress, "address", "", "Permanent address")
	fs.StringVar(f.FlatOwnerName, "flat-owner", "", "Flat owner, when not the vehicle owner")
	fs.StringVar(f.VehicleType, "type", "", "Vehicle type")
	fs.StringVar(f.ValidTill, "valid-till", "", "Pass expiry as YYYY-MM-DD (default today)")
}

func patchFromFlags(fs *pflag.FlagSet, in vehicles.CreateInput) vehicles.Patch {
	opt := func(name, v string) vehicles.Optional[string] {
		if !fs.Changed(name) {
			return vehicles.Unspecified[string]()
		}
		return vehicles.Some(v)
	}
	return vehicles.Patch{
		VehicleNumber:    opt("vehicle-number", in.VehicleNumber),
		PassNumber:       opt("pass-number", in.PassNumber),
		FlatNumber:       opt("flat-number", in.FlatNumber),
		OwnerName:        opt("owner-name", in.OwnerName),
		OwnerContact:     opt("owner-contact", in.OwnerContact),
		DLOrRCNumber:     opt("dl-rc", in.DLOrRCNumber),
		AlternateContact: opt("alternate-contact", in.AlternateContact),
		Email:            opt("email", in.Email),
		PermanentAddress: opt("address", in.PermanentAddress),
		FlatOwnerName:    opt("flat-owner", in.FlatOwnerName),
		VehicleType:      opt("type", in.VehicleType),
		ValidTill:        opt("valid-till", in.ValidTill),
	}
}

func printVehicleTable(w io.Writer, vs []domain.Vehicle) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLATE\tPASS\tFLAT\tOWNER\tVALID TILL\tID")
	for _, v := range vs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", v.Plate(), v.PassNumber, v.FlatNumber, v.OwnerName, v.ValidTill, v.ID)
	}
	_ = tw.Flush()
}

func printVehicle(w io.Writer, v domain.Vehicle) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	row := func(k, val string) {
		if val != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", k, val)
		}
	}
	row("Plate", v.Plate())
	row("Pass", v.PassNumber)
	row("Flat", v.FlatNumber)
	row("Flat owner", v.FlatOwnerName)
	row("Owner", v.OwnerName)
	row("Contact", v.OwnerContact)
	row("Alt contact", v.AlternateContact)
	row("Email", v.Email)
	row("DL/RC", v.DLOrRCNumber)
	row("Address", v.PermanentAddress)
	row("Type", v.VehicleType)
	row("Valid till", v.ValidTill)
	row("ID", string(v.ID))
	_ = tw.Flush()
}
