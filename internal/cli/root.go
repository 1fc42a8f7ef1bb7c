// Package cli implements the parcelctl admin commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parcel-notify/internal/bootstrap"
	"github.com/parcel-notify/internal/config"
	"github.com/parcel-notify/internal/pkg/logger"
)

// runtime is filled by the root command before any subcommand runs.
type runtime struct {
	cfg   *config.Config
	log   *zap.Logger
	store bootstrap.Store
}

// NewRootCmd builds the parcelctl command tree.
func NewRootCmd() *cobra.Command {
	rt := &runtime{}
	root := &cobra.Command{
		Use:           "parcelctl",
		Short:         "Administer the parcel notification store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			rt.cfg = config.Load()
			log, err := logger.New(rt.cfg.LogLevel, "console", "parcelctl")
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			rt.log = log
			st, err := bootstrap.OpenStore(cmd.Context(), rt.cfg, log)
			if err != nil {
				return err
			}
			rt.store = st
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			_ = rt.log.Sync()
			if rt.store == nil {
				return nil
			}
			return rt.store.Close()
		},
	}
	root.AddCommand(
		migrateCmd(rt),
		seedCmd(rt),
		apartmentsCmd(rt),
		purgeCmd(rt),
	)
	return root
}
