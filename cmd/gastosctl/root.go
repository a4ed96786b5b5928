package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gastos/internal/calendar"
	"gastos/internal/config"
	"gastos/internal/database"
	"gastos/internal/logger"
	"gastos/internal/services"
)

// app holds what every subcommand needs. It is filled in by the root
// command's pre-run hook.
type app struct {
	cfg     *config.Config
	manager *database.Manager
	clock   calendar.Clock
}

// open connects to the configured database. Commands that only touch the
// schema skip migrations.
func (a *app) open() error {
	if a.manager != nil {
		return nil
	}
	m, err := database.NewManager(&a.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	a.manager = m
	return nil
}

// openMigrated connects and brings the schema up to date.
func (a *app) openMigrated() error {
	if err := a.open(); err != nil {
		return err
	}
	return a.manager.RunMigrations()
}

func (a *app) close() {
	if a.manager != nil {
		if err := a.manager.Close(); err != nil {
			logger.Get().Warnw("failed to close database", "error", err)
		}
		a.manager = nil
	}
}

func (a *app) budgetService() services.BudgetServicer {
	return services.NewBudgetService(a.manager.DB(), nil, nil)
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "gastosctl",
		Short:        "Maintenance commands for the gastos expense tracker",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(cfg.Env, cfg.LogLevel)
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.clock = calendar.SystemClock{Location: loc}
			cmd.SetContext(services.WithSource(cmd.Context(), services.SourceCLI))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.AddCommand(
		newProcessDueCmd(a),
		newBudgetsCmd(a),
		newBreakdownCmd(a),
		newMigrateCmd(a),
	)
	return root
}
