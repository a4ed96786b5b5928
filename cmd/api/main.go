package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"gastos/internal/calendar"
	"gastos/internal/config"
	"gastos/internal/database"
	_ "gastos/internal/docs" // Import swagger docs
	"gastos/internal/events"
	"gastos/internal/handlers"
	"gastos/internal/logger"
	"gastos/internal/services"
	"gastos/internal/validator"
)

// @title           Gastos API
// @version         1.0
// @description     Gastos tracks expenses, monthly budgets and recurring payments.

// @host      localhost:8080
// @BasePath  /api/v1

func main() {
	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Init(cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	log := logger.Get()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Create database manager
	dbManager, err := database.NewManager(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus(64)
	defer bus.Close()

	g, ctx := errgroup.WithContext(ctx)

	// Event forwarding is optional; the API keeps working without a broker.
	if cfg.AMQP.URL != "" {
		forwarder, err := events.DialForwarder(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Warnw("AMQP unavailable, change events will not be forwarded", "error", err)
		} else {
			defer forwarder.Close()
			changes, unsubscribe := bus.Subscribe()
			defer unsubscribe()
			g.Go(func() error {
				forwarder.Run(ctx, changes)
				return nil
			})
			log.Infow("Forwarding change events", "exchange", cfg.AMQP.Exchange)
		}
	}

	// Initialize services
	db := dbManager.DB()
	clock := calendar.SystemClock{Location: loc}
	activityService := services.NewActivityService(db)
	categoryService := services.NewCategoryService(db, bus, activityService)
	transactionService := services.NewTransactionService(db, bus, activityService)
	budgetService := services.NewBudgetService(db, bus, activityService)
	recurringService := services.NewRecurringService(db, clock, bus, activityService)
	scheduler := services.NewSchedulerService(db, bus, activityService)
	defer scheduler.Close()

	validator.Register()
	router := handlers.NewRouter(handlers.Services{
		Categories:   categoryService,
		Transactions: transactionService,
		Budgets:      budgetService,
		Recurring:    recurringService,
		Scheduler:    scheduler,
		Activity:     activityService,
		Streamer:     services.NewBudgetWatcher(budgetService, bus),
		Clock:        clock,
	})

	processDue := func(reason string) {
		runCtx := services.WithSource(ctx, services.SourceScheduler)
		result, err := scheduler.ProcessDue(runCtx, clock.Today())
		if err != nil {
			log.Errorw("Processing due recurring definitions failed", "trigger", reason, "error", err)
			return
		}
		log.Infow("Processed due recurring definitions",
			"trigger", reason,
			"today", result.Today,
			"materialized", result.Materialized,
			"deactivated", result.Deactivated,
			"failed", result.Failed,
		)
	}

	// Catch up on anything that fell due while the server was down.
	g.Go(func() error {
		processDue("startup")
		return nil
	})

	sched := cron.New(cron.WithLocation(loc))
	if _, err := sched.AddFunc(cfg.ProcessSchedule, func() { processDue("cron") }); err != nil {
		return fmt.Errorf("invalid process schedule: %w", err)
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Budget streams end when the server context is cancelled.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		log.Infof("Starting Gastos server on port %s", cfg.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
