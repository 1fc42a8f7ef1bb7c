package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/parcel-notify/internal/application/apartment"
	"github.com/parcel-notify/internal/application/ledger"
	"github.com/parcel-notify/internal/bootstrap"
)

func migrateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations (SQL) or create missing tables (DynamoDB)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Opening the store already brought the schema up to date.
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", rt.cfg.StoreDriver)
			return nil
		},
	}
}

func seedCmd(rt *runtime) *cobra.Command {
	var (
		file     string
		defaults bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Register apartments from a CSV file or the built-in defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" && !defaults {
				return errors.New("pass --file, --defaults or both")
			}
			svc := apartment.NewService(rt.store, rt.log)
			out := cmd.OutOrStdout()
			if file != "" {
				res, err := svc.LoadSeedFile(cmd.Context(), file)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %d inserted, %d existing, %d skipped\n", file, res.Inserted, res.Existing, len(res.Skipped))
			}
			if defaults {
				res, err := svc.SeedDefaults(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "defaults: %d inserted\n", res.Inserted)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV file of apartment_no[,display_name] rows")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "insert the default apartments when none exist")
	return cmd
}

func apartmentsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apartments",
		Short: "Inspect and edit the apartment directory",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List apartments in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			apts, err := apartment.NewService(rt.store, rt.log).List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "APARTMENT\tDISPLAY NAME")
			for _, a := range apts {
				fmt.Fprintf(tw, "%s\t%s\n", a.Key, a.Label())
			}
			return tw.Flush()
		},
	}, &cobra.Command{
		Use:   "remove KEY",
		Short: "Remove an apartment and its bindings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apartment.NewService(rt.store, rt.log).Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func purgeCmd(rt *runtime) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete ledger rows older than --days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			archiver, err := bootstrap.NewArchiver(cmd.Context(), rt.cfg)
			if err != nil {
				return err
			}
			svc := ledger.NewService(ledger.ServiceDeps{Store: rt.store, Archiver: archiver, Log: rt.log})
			res, err := svc.Purge(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d rows before %s\n", res.Deleted, res.Cutoff.Format(time.RFC3339))
			if res.Archive != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "archived to %s\n", res.Archive)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", ledger.DefaultRetentionDays, "retention threshold in days")
	return cmd
}
