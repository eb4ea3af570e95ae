package arenabuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/park285/cheese-arena/internal/analysis"
	"github.com/park285/cheese-arena/internal/analysis/uci"
	"github.com/park285/cheese-arena/internal/archive"
	"github.com/park285/cheese-arena/internal/arena"
	"github.com/park285/cheese-arena/internal/config"
	"github.com/park285/cheese-arena/internal/fastclient"
	"github.com/park285/cheese-arena/internal/httpapi"
	"github.com/park285/cheese-arena/internal/msgcat"
	"github.com/park285/cheese-arena/internal/oracle"
	"github.com/park285/cheese-arena/internal/store"
)

type Deps struct {
	Manager *arena.Manager
	App     *fiber.App
	Store   *store.Store
	Archive archive.Repository
	Engines *uci.Pool

	closers []func() error
}

// New wires the online service from cfg. Postgres and the analysis backend are
// optional; redis is not.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deps{}

	st, err := store.Open(ctx, cfg.RedisURL, cfg.GameTTL(), logger.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	d.Store = st
	d.closers = append(d.closers, st.Close)

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		repo, err := archive.NewPostgresRepository(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("init archive: %w", err)
		}
		d.Archive = repo
	} else {
		logger.Info("archive_in_memory")
		d.Archive = archive.NewMemoryRepository()
	}
	d.closers = append(d.closers, d.Archive.Close)

	catalog, err := msgcat.New(cfg.Locale, cfg.MessagesDir)
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("init messages: %w", err)
	}

	backend, err := d.analysisBackend(cfg, logger)
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	advisor := analysis.NewAdvisor(backend, analysis.AdvisorConfig{
		DefaultDepth: cfg.AnalysisDepth,
		MaxDepth:     cfg.AnalysisMaxDepth,
		Timeout:      cfg.AnalysisTimeout(),
	}, logger.Named("analysis"))

	d.Manager = arena.NewManager(st,
		arena.WithOracle(oracle.New(logger.Named("oracle")), cfg.OracleCrossCheck),
		arena.WithAdvisor(advisor),
		arena.WithArchive(d.Archive),
		arena.WithCatalog(catalog),
	)
	d.App = httpapi.New(d.Manager, httpapi.Config{
		AllowedOrigins: cfg.AllowedOrigins,
	})
	return d, nil
}

// analysisBackend prefers a local engine pool over the remote endpoint.
// Neither configured is fine: suggestions report unavailable.
func (d *Deps) analysisBackend(cfg *config.AppConfig, logger *zap.Logger) (analysis.Oracle, error) {
	switch {
	case strings.TrimSpace(cfg.StockfishPath) != "":
		pool, err := uci.NewPool(uci.PoolConfig{
			BinaryPath: cfg.StockfishPath,
			Capacity:   cfg.StockfishCapacity,
			Logger:     logger.Named("uci"),
		})
		if err != nil {
			return nil, fmt.Errorf("init engine pool: %w", err)
		}
		d.Engines = pool
		d.closers = append(d.closers, pool.Close)
		return uci.NewOracle(pool), nil
	case strings.TrimSpace(cfg.AnalysisURL) != "":
		client := fastclient.New(cfg.AnalysisURL, fastclient.WithTimeout(cfg.AnalysisTimeout()))
		return analysis.NewHTTPOracle(client, cfg.AnalysisPath), nil
	default:
		logger.Info("analysis_disabled")
		return nil, nil
	}
}

// Close releases everything New opened, last opened first.
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
