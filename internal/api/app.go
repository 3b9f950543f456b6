package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/pathwise/progression/internal/config"
	"github.com/pathwise/progression/internal/domain"
	"github.com/pathwise/progression/internal/evaluation"
	"github.com/pathwise/progression/internal/oracle"
	"github.com/pathwise/progression/internal/program"
	"github.com/pathwise/progression/internal/progress"
	"github.com/pathwise/progression/internal/repository"
	"github.com/pathwise/progression/internal/scenario"
)

// App holds all application dependencies
type App struct {
	Config     *config.Config
	DB         *pgxpool.Pool
	Cache      *scenario.Cache
	Oracle     oracle.Provider
	Dispatcher *domain.EventDispatcher

	Scenarios   *scenario.Service
	Programs    *program.Service
	Progress    *progress.Service
	Evaluations *evaluation.Service
}

// AppConfig holds configuration for application initialization
type AppConfig struct {
	Config     *config.Config
	DB         *pgxpool.Pool
	Dispatcher *domain.EventDispatcher
	Logger     *slog.Logger
}

// NewApp creates a new application instance with all dependencies wired
func NewApp(cfg AppConfig) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{
		Config:     cfg.Config,
		DB:         cfg.DB,
		Dispatcher: cfg.Dispatcher,
	}
	if app.Dispatcher == nil {
		app.Dispatcher = domain.NewEventDispatcher()
	}

	// Redis cache is optional: an empty address runs the scenario
	// service straight against Postgres.
	if cfg.Config.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Config.RedisAddr,
			Password: cfg.Config.RedisPassword,
			DB:       cfg.Config.RedisDB,
		})
		app.Cache = scenario.NewCache(client, scenario.DefaultScenarioTTL)
	}

	provider, err := initOracleProvider(cfg.Config, logger)
	if err != nil {
		return nil, fmt.Errorf("init oracle provider: %w", err)
	}
	app.Oracle = provider

	bands, err := domain.NewBandScale([]domain.Band{
		{Name: "excellent", Min: cfg.Config.BandExcellent},
		{Name: "proficient", Min: cfg.Config.BandProficient},
		{Name: "developing", Min: cfg.Config.BandDeveloping},
		{Name: "needs improvement", Min: 0},
	})
	if err != nil {
		return nil, fmt.Errorf("build band scale: %w", err)
	}

	scenarioRepo := repository.NewScenarioRepository(cfg.DB)
	programRepo := repository.NewProgramRepository(cfg.DB)
	taskRepo := repository.NewTaskRepository(cfg.DB)
	evalRepo := repository.NewEvaluationRepository(cfg.DB)

	app.Scenarios = scenario.NewService(scenarioRepo, app.Cache, logger)
	app.Programs = program.NewService(app.Scenarios, programRepo, taskRepo, app.Dispatcher, logger)
	app.Progress = progress.NewService(programRepo, taskRepo, app.Dispatcher, nil, logger)
	app.Evaluations = evaluation.NewService(provider, evalRepo, taskRepo, programRepo, bands, evaluation.Config{
		NeutralScore:  cfg.Config.NeutralScore,
		OracleTimeout: time.Duration(cfg.Config.OracleTimeout) * time.Second,
	}, app.Dispatcher, logger)

	return app, nil
}

// initOracleProvider sets up the scoring oracle based on configuration.
// The configured provider is wrapped with circuit breaking, retry and
// bulkhead protection; a missing provider leaves scoring on the neutral
// fallback path.
func initOracleProvider(cfg *config.Config, logger *slog.Logger) (oracle.Provider, error) {
	registry := oracle.NewRegistry()

	if cfg.OracleAPIKey != "" {
		registry.Register("claude", oracle.NewClaudeProvider(oracle.ClaudeConfig{
			APIKey: cfg.OracleAPIKey,
			Model:  cfg.OracleModel,
		}))
	}
	if cfg.OllamaURL != "" {
		registry.Register("ollama", oracle.NewOllamaProvider(oracle.OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OracleModel,
		}))
	}

	if cfg.OracleProvider != "" {
		if err := registry.SetDefault(cfg.OracleProvider); err != nil {
			// No key means no oracle. Scoring degrades to the neutral
			// score instead of failing program completion.
			if cfg.OracleProvider == "claude" && cfg.OracleAPIKey == "" {
				return nil, nil
			}
			return nil, fmt.Errorf("select oracle provider %q: %w", cfg.OracleProvider, err)
		}
	}

	provider, err := registry.Default()
	if err != nil {
		return nil, nil
	}

	rcfg := oracle.DefaultResilientConfig()
	rcfg.Logger = logger
	return oracle.NewResilientProvider(provider, rcfg), nil
}

// Close cleans up application resources
func (a *App) Close() error {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			return err
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
	return nil
}
