package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/storefront/internal/config"
	dbRedis "github.com/kailas-cloud/storefront/internal/db/redis"
	"github.com/kailas-cloud/storefront/internal/domain/catalog"
	"github.com/kailas-cloud/storefront/internal/domain/query"
	logpkg "github.com/kailas-cloud/storefront/internal/logger"
	"github.com/kailas-cloud/storefront/internal/repository/history"
	"github.com/kailas-cloud/storefront/internal/repository/searchcache"
	"github.com/kailas-cloud/storefront/internal/transport/algolia"
	"github.com/kailas-cloud/storefront/internal/tui"
	"github.com/kailas-cloud/storefront/internal/usecase/autocomplete"
	cataloguc "github.com/kailas-cloud/storefront/internal/usecase/catalog"
	"github.com/kailas-cloud/storefront/internal/usecase/panel"
	"github.com/kailas-cloud/storefront/internal/version"
)

type searchGateway interface {
	Search(ctx context.Context, index string, p catalog.Params) (catalog.Response, error)
	GetObject(ctx context.Context, index, objectID string) (catalog.Hit, error)
}

type historyStore interface {
	autocomplete.History
	panel.HistoryWriter
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "storefront-tui:", err)
		os.Exit(1)
	}
}

func run() error {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// stdout and stderr belong to the terminal UI.
	logger, err := logpkg.NewFileLogger(env, cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting storefront terminal client",
		zap.String("version", version.Version),
		zap.String("env", env),
	)

	var store *dbRedis.Store
	if len(cfg.Database.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			return fmt.Errorf("create database store: %w", err)
		}
		defer store.Close()

		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(context.Background(), timeout); err != nil {
			return fmt.Errorf("database not ready: %w", err)
		}
	}

	algoliaGW, err := algolia.NewGateway(&algolia.Config{
		AppID:   cfg.Algolia.AppID,
		APIKey:  cfg.Algolia.APIKey,
		Timeout: time.Duration(cfg.Algolia.TimeoutSec) * time.Second,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("create search gateway: %w", err)
	}

	var gw searchGateway = algoliaGW
	var hist historyStore = history.NewMemory(cfg.Autocomplete.HistoryLimit,
		time.Duration(cfg.Autocomplete.HistoryTTL)*time.Hour)
	if store != nil {
		if cfg.Cache.Enabled {
			gw = searchcache.New(algoliaGW, store,
				time.Duration(cfg.Cache.TTLSec)*time.Second, nil, logger)
		}
		hist = history.New(store, cfg.Autocomplete.HistoryKey, cfg.Autocomplete.HistoryLimit,
			time.Duration(cfg.Autocomplete.HistoryTTL)*time.Hour)
	}

	catalogCfg := cfg.Algolia.Catalog()
	agg, err := autocomplete.New(gw, hist, catalogCfg,
		autocomplete.WithPoolSize(cfg.Autocomplete.PoolSize),
		autocomplete.WithHistorySize(cfg.Autocomplete.HistoryLimit),
		autocomplete.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("create autocomplete aggregator: %w", err)
	}
	defer agg.Close()

	scope := os.Getenv("USER")
	if scope == "" {
		scope = uuid.NewString()
	}

	m := tui.New(agg, cataloguc.New(gw, catalogCfg), hist, tui.Config{
		Scope:             scope,
		Debounce:          cfg.Autocomplete.Debounce(),
		CategoryAttribute: catalogCfg.CategoryAttribute,
		Initial:           query.State{Text: strings.Join(os.Args[1:], " ")},
		Logger:            logger,
	})
	defer m.Close()

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
