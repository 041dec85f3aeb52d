package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/semmidev/dumpwarden/internal/app"
	"github.com/semmidev/dumpwarden/internal/config"
	"github.com/semmidev/dumpwarden/internal/domain"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		flags   domain.RunFlags
	)

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up the MySQL database and prune old backups",
		Long: `Dump the configured MySQL database into a gzip file named
backup-<timestamp>.gz under the backup directory of the storage disk.

Flags:
  --run    only dump, never delete
  --d      only delete, never dump; combine with --auto or --all to select
           which backups go
  --auto   delete backups older than the retention period
  --all    delete every backup regardless of age

--run cannot be combined with any other flag.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Conflicting flags are refused before any configuration or
			// storage is touched.
			if err := flags.Validate(); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}

			application, err := load(cmd, cfgFile)
			if err != nil {
				return err
			}
			defer application.Shutdown()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			_, err = application.Run(ctx, flags)
			return err
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("BACKUP_DB_CONFIG"), "config file path")
	cmd.Flags().BoolVar(&flags.RunOnly, "run", false, "only create a backup")
	cmd.Flags().BoolVar(&flags.DeleteOnly, "d", false, "only delete, never create a backup")
	cmd.Flags().BoolVar(&flags.AutoCleanup, "auto", false, "delete old backups, then create a backup")
	cmd.Flags().BoolVar(&flags.DeleteAll, "all", false, "delete every backup regardless of age")

	cmd.AddCommand(newScheduleCmd(&cfgFile))
	return cmd
}

// load reads and validates the configuration and builds the application.
func load(cmd *cobra.Command, cfgFile string) (*app.App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: load config: %v\n", err)
		return nil, fmt.Errorf("load config: %w", err)
	}
	application, err := app.New(context.Background(), cfg, app.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()))
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: initialize app: %v\n", err)
		return nil, fmt.Errorf("initialize app: %w", err)
	}
	return application, nil
}
