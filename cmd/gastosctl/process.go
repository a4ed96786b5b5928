package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gastos/internal/calendar"
	"gastos/internal/services"
)

func newProcessDueCmd(a *app) *cobra.Command {
	var today string

	cmd := &cobra.Command{
		Use:   "process-due",
		Short: "Materialize every recurring definition that is due",
		Long: `Creates the transactions of every active recurring definition due on or
before today and advances each definition to its next due date. Running it
again on the same day creates nothing new.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := a.clock.Today()
			if today != "" {
				d, err := calendar.Parse(today)
				if err != nil {
					return fmt.Errorf("invalid --today: %w", err)
				}
				day = d
			}

			if err := a.openMigrated(); err != nil {
				return err
			}
			db := a.manager.DB()
			scheduler := services.NewSchedulerService(db, nil, services.NewActivityService(db))
			defer scheduler.Close()

			result, err := scheduler.ProcessDue(cmd.Context(), day)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: checked %d, materialized %d, deactivated %d, skipped %d, failed %d\n",
				result.Today, result.Checked, result.Materialized, result.Deactivated, result.Skipped, result.Failed)
			return nil
		},
	}

	cmd.Flags().StringVar(&today, "today", "", "process as if today were this date (YYYY-MM-DD)")
	return cmd
}
