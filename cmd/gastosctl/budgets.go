package main

import (
	"github.com/spf13/cobra"

	"gastos/internal/report"
)

func newBudgetsCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "budgets PERIOD",
		Short: "Print budget progress per category for a month (YYYY-MM)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			if err := a.openMigrated(); err != nil {
				return err
			}

			rows, err := a.budgetService().GetBudgetsForPeriod(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report.Budgets(cmd.OutOrStdout(), f, rows)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(report.FormatTable), "output format: table or csv")
	return cmd
}

func newBreakdownCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "breakdown PERIOD",
		Short: "Print spending per category for a month (YYYY-MM), largest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			if err := a.openMigrated(); err != nil {
				return err
			}

			slices, err := a.budgetService().GetSpendingBreakdown(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report.Breakdown(cmd.OutOrStdout(), f, slices)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(report.FormatTable), "output format: table or csv")
	return cmd
}
