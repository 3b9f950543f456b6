package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pathwise/progression/internal/api"
	"github.com/pathwise/progression/internal/config"
	"github.com/pathwise/progression/internal/domain"
	"github.com/pathwise/progression/internal/queue"
	"github.com/pathwise/progression/internal/repository"
	"github.com/pathwise/progression/internal/scenario"
)

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	setupLogging(cfg)

	ctx := context.Background()

	pool, err := repository.NewPool(ctx, repository.PoolConfig{DSN: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := repository.Migrate(ctx, pool); err != nil {
		pool.Close()
		return fmt.Errorf("migrate database: %w", err)
	}

	dispatcher := domain.NewEventDispatcher()

	app, err := api.NewApp(api.AppConfig{
		Config:     cfg,
		DB:         pool,
		Dispatcher: dispatcher,
	})
	if err != nil {
		pool.Close()
		return fmt.Errorf("create app: %w", err)
	}
	defer app.Close()

	// Broker is optional: events stay in-process when no URL is configured.
	if cfg.RabbitMQURL != "" {
		conn, err := queue.NewConnection(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("connect broker: %w", err)
		}
		defer conn.Close()
		queue.NewProducer(conn).BridgeDispatcher(dispatcher)
	}

	// Completed tasks are scored out of band so learner requests never wait
	// on the oracle.
	dispatcher.Subscribe(domain.EventTypeTaskCompleted, func(e domain.Event) {
		go func() {
			scoreCtx, cancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.OracleTimeout)*time.Second+10*time.Second)
			defer cancel()

			if _, err := app.Evaluations.ScoreTask(scoreCtx, e.AggregateID(), ""); err != nil {
				slog.Error("task scoring failed", "task_id", e.AggregateID(), "error", err)
			}
		}()
	})

	if cfg.ScenariosPath != "" {
		if err := importScenarios(ctx, app, cfg.ScenariosPath); err != nil {
			return fmt.Errorf("import scenarios: %w", err)
		}
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.NewRouter(app),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		slog.Info("received signal, shutting down", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		close(done)
	}()

	slog.Info("progression engine listening", "port", cfg.Port)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	slog.Info("daemon stopped")
	return nil
}

func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// importScenarios upserts the YAML authoring seeds at startup so a fresh
// deployment has content without a separate import step.
func importScenarios(ctx context.Context, app *api.App, path string) error {
	scenarios, err := scenario.NewLoader(path).LoadAll()
	if err != nil {
		return err
	}
	if err := app.Scenarios.Import(ctx, scenarios); err != nil {
		return err
	}
	slog.Info("scenario seeds imported", "count", len(scenarios), "path", path)
	return nil
}
