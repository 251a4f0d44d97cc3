package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/groundwork/internal/cli"
	"github.com/alexanderramin/groundwork/internal/config"
	"github.com/alexanderramin/groundwork/internal/db"
	"github.com/alexanderramin/groundwork/internal/repository"
	"github.com/alexanderramin/groundwork/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The database is opened once flags and config are parsed.
	var database *sql.DB
	defer func() {
		if database != nil {
			database.Close()
		}
	}()

	app := &cli.App{}
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}
	app.Connect = func(cfg config.Config) error {
		level, err := cfg.SlogLevel()
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		app.Logger = logger

		database, err = db.OpenDB(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}

		// Wire repositories
		projectRepo := repository.NewSQLiteProjectRepo(database)
		taskRepo := repository.NewSQLiteTaskRepo(database)

		// Wire unit of work for transactional operations
		uow := db.NewSQLiteUnitOfWork(database)

		var observers []service.UseCaseObserver
		if cfg.LogCalls {
			observers = append(observers, service.NewLogUseCaseObserver(os.Stderr))
		}
		opts := service.EngineOptions{Logger: logger, MaxPasses: cfg.MaxPasses}

		app.Projects = service.NewProjectService(projectRepo)
		app.Schedule = service.NewScheduleService(taskRepo, uow, opts, observers...)
		app.Import = service.NewImportService(uow, opts, observers...)
		return nil
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.ExecuteContext(ctx)
}
