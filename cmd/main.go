package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/golang-cz/devslog"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/conduit/internal/config"
	"github.com/siahsang/conduit/internal/core"
)

type application struct {
	config *config.Config
	logger *slog.Logger
	core   *core.Core
	wg     sync.WaitGroup
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, xerrors.Sprint(err))
		os.Exit(1)
	}

	logger := configLogger(cfg.Env)
	if err := run(cfg, logger); err != nil {
		logger.Error("application stopped with error", slog.String("stack", xerrors.Sprint(err)))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Starting application...", slog.String("env", cfg.Env), slog.String("storage", cfg.Storage))

	ports, closeAll, err := openPorts(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeAll()

	app := &application{
		config: cfg,
		logger: logger,
		core:   core.New(ports, logger),
	}

	app.doInBackground(app.warmTagCache)
	return app.serve()
}

func configLogger(env string) *slog.Logger {
	if env != config.EnvDevelopment {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	handler := devslog.NewHandler(
		os.Stdout, &devslog.Options{
			HandlerOptions: &slog.HandlerOptions{
				AddSource: true,
				Level:     slog.LevelDebug,
			},
			NewLineAfterLog: false,
		})

	return slog.New(handler)
}

// warmTagCache fills the tag cache so that the first tag request does not
// hit the database.
func (app *application) warmTagCache() {
	if _, err := app.core.ListTags.Execute(context.Background()); err != nil {
		app.logger.Warn("failed to warm tag cache", slog.String("error", err.Error()))
	}
}
