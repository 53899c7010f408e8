package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/currentsee/internal/models"
)

var distributeCmd = &cobra.Command{
	Use:   "distribute",
	Short: "Run the daily SOLAR distribution once",
	Long: `Credit every eligible member for the days since their last distribution and exit.

Safe to run repeatedly: a second run on the same day credits nothing. Use it
from cron when the serve scheduler is disabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		run, err := a.distributor.Run(ctx, models.TriggerManual)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Distribution for %s: %d members credited, %s SOLAR\n",
			run.Date, run.MembersCredited, run.SolarCredited.String())
		return nil
	},
}
