package commands

import (
	"fmt"

	"github.com/wonny/factorlab/internal/contracts"
	"github.com/wonny/factorlab/internal/evaluation"
	"github.com/wonny/factorlab/internal/factors"
	"github.com/wonny/factorlab/internal/marketdata"
	"github.com/wonny/factorlab/internal/store"
	"github.com/wonny/factorlab/pkg/config"
	"github.com/wonny/factorlab/pkg/database"
	"github.com/wonny/factorlab/pkg/logger"
	"github.com/wonny/factorlab/pkg/redis"
)

// Built-in factor parameters
const (
	momentumLookbackDays = 60
	reversalLookbackDays = 5
	qualityDebtPenalty   = 0.1
)

// app bundles the wired dependencies shared by all commands
type app struct {
	cfg       *config.Config
	logger    *logger.Logger
	db        *database.DB
	redis     *redis.Client
	registry  *factors.Registry
	returns   contracts.ReturnProvider
	evaluator *evaluation.Evaluator
	store     contracts.ReportStore
	universe  *marketdata.UniverseRepository
}

// initApp loads configuration and wires the full dependency graph.
// Market data always comes from PostgreSQL; the store backend setting
// only selects where reports are persisted.
func initApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for market data access")
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	cache := redis.NewCache(redisClient, "factorlab")

	prices := marketdata.NewPriceRepository(db.Pool)
	fundamentals := marketdata.NewFundamentalRepository(db.Pool)
	universe := marketdata.NewUniverseRepository(db.Pool)

	registry := factors.NewRegistry()
	cached := func(f contracts.FactorSource) contracts.FactorSource {
		return factors.NewCachedSource(f, cache, cfg.Redis.ScoreTTL, log)
	}

	momentum := factors.NewMomentum(prices, momentumLookbackDays, log)
	reversal := factors.NewReversal(prices, reversalLookbackDays, log)
	value := factors.NewValue(fundamentals, log)
	quality := factors.NewQuality(fundamentals, qualityDebtPenalty, log)

	core, err := factors.NewComposite(
		"core",
		[]contracts.FactorSource{momentum, value, quality},
		[]float64{0.4, 0.3, 0.3},
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("build composite factor: %w", err)
	}

	for _, f := range []contracts.FactorSource{momentum, reversal, value, quality} {
		if err := registry.Register(cached(f)); err != nil {
			return nil, fmt.Errorf("register factor: %w", err)
		}
	}
	if err := registry.Register(core); err != nil {
		return nil, fmt.Errorf("register factor: %w", err)
	}

	returns := marketdata.NewPriceReturnProvider(prices)
	evaluator := evaluation.New(returns, evaluation.ConfigFrom(cfg), log)

	var reportStore contracts.ReportStore
	switch cfg.Evaluation.StoreBackend {
	case "file":
		reportStore, err = store.NewFileStore(cfg.Evaluation.ReportDir, log)
		if err != nil {
			return nil, fmt.Errorf("init file store: %w", err)
		}
	default:
		reportStore = store.NewPostgresStore(db, log)
	}

	return &app{
		cfg:       cfg,
		logger:    log,
		db:        db,
		redis:     redisClient,
		registry:  registry,
		returns:   returns,
		evaluator: evaluator,
		store:     reportStore,
		universe:  universe,
	}, nil
}

// close releases connections held by the app
func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
