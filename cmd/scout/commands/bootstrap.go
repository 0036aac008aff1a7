package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/gainerscout/internal/archive"
	"github.com/wonny/gainerscout/internal/finviz"
	"github.com/wonny/gainerscout/internal/pipeline"
	"github.com/wonny/gainerscout/internal/premarket"
	"github.com/wonny/gainerscout/internal/screenerconfig"
	"github.com/wonny/gainerscout/internal/telegram"
	"github.com/wonny/gainerscout/pkg/config"
	"github.com/wonny/gainerscout/pkg/database"
	"github.com/wonny/gainerscout/pkg/httputil"
	"github.com/wonny/gainerscout/pkg/logger"
	"github.com/wonny/gainerscout/pkg/redis"
)

// app holds the wired dependencies shared by every command
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB  // nil when DATABASE_URL is empty
	redis    *redis.Client // disabled unless REDIS_ENABLED
	archive  *archive.Repository
	screener *screenerconfig.Config
	runner   *pipeline.Runner
}

// loadSettings reads env config and the screener definition, applying
// command-line overrides through override (may be nil)
func loadSettings(override func(*config.Config)) (*config.Config, *screenerconfig.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if screenerFile != "" {
		cfg.Finviz.ScreenerConfig = screenerFile
	}
	if override != nil {
		override(cfg)
	}

	screener, err := screenerconfig.LoadOrDefault(cfg.Finviz.ScreenerConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("load screener config: %w", err)
	}
	return cfg, screener, nil
}

// newApp wires config → logger → stores → clients → runner
func newApp(ctx context.Context, override func(*config.Config)) (*app, error) {
	// 1. Load config
	cfg, screener, err := loadSettings(override)
	if err != nil {
		return nil, err
	}

	// 2. Initialize logger
	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log, screener: screener}

	// 3. Redis (optional)
	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		// 캐시는 선택 사항: 연결 실패 시 비활성화하고 계속
		log.WithError(err).Warn("Redis unavailable, detail cache disabled")
		a.redis = redis.Disabled()
	}

	// 4. Database (optional run archive)
	a.db, err = database.New(ctx, cfg)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		log.Debug("DATABASE_URL not set, run archive disabled")
	case err != nil:
		a.close()
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		a.archive = archive.NewRepository(a.db.Pool)
		if err := a.archive.EnsureSchema(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		log.Info("Connected to database")
	}

	// 5. HTTP + upstream clients
	httpClient := httputil.New(cfg, log)
	limiter := redis.NewRateLimiter(a.redis, "scout")

	finvizClient := finviz.NewClient(cfg, httpClient, screener, log).
		WithCache(redis.NewCache(a.redis, "scout")).
		WithRateLimiter(limiter)
	notifier := telegram.NewNotifier(cfg, httpClient, log).WithRateLimiter(limiter)
	store := premarket.NewStore(cfg.IntradayDir, cfg.Location(), log)

	// 6. Runner
	hash, err := screenerconfig.Hash(screener)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("hash screener config: %w", err)
	}
	a.runner = pipeline.NewRunner(pipeline.Config{
		OutputPath:   cfg.OutputCSV,
		ScreenerHash: hash,
	}, finviz.NewScraper(finvizClient, log), store, notifier, log)
	if a.archive != nil {
		a.runner.WithArchive(a.archive)
	}

	return a, nil
}

func (a *app) close() {
	a.db.Close()
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = a.log.Close()
}
