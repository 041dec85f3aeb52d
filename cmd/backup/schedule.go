package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newScheduleCmd(cfgFile *string) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run backups on the configured schedule",
		Long: `Run the --auto flow (prune, then dump) at the configured time until
interrupted. A run that is still in progress when the next one is due
causes that next run to be skipped.

Examples:
  # Daily at 00:15
  BACKUP_DB_SCHEDULE_TIME=00:15 backup schedule

  # Show the cron expression without starting
  backup schedule --print`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := load(cmd, *cfgFile)
			if err != nil {
				return err
			}
			defer application.Shutdown()

			if printOnly {
				spec, err := application.CronSpec()
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), spec)
				return nil
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := application.Schedule(ctx); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "print the cron expression and exit")
	return cmd
}
