// Package chessbuilder wires the engine gateway, cache, archive and session
// manager from the application config.
package chessbuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/adaptive-chess/internal/archive"
	"github.com/park285/adaptive-chess/internal/chess"
	"github.com/park285/adaptive-chess/internal/config"
	"github.com/park285/adaptive-chess/internal/events"
	"github.com/park285/adaptive-chess/internal/quality"
	"github.com/park285/adaptive-chess/internal/rules"
	"github.com/park285/adaptive-chess/internal/service/cache"
	"github.com/park285/adaptive-chess/internal/service/session"
)

type Deps struct {
	Manager *session.Manager
	Gateway *chess.Gateway
	Meter   *quality.Meter
	Cache   *cache.CacheService // nil without REDIS_URL
	Archive archive.Repository
	Hub     *events.Hub
}

func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(cfg.StockfishPath) == "" {
		return nil, fmt.Errorf("STOCKFISH_PATH is required for chess engine")
	}

	collision, err := session.ParseCollisionPolicy(cfg.CollisionPolicy)
	if err != nil {
		return nil, err
	}
	measurement, err := session.ParseMeasurementPolicy(cfg.MeasurementPolicy)
	if err != nil {
		return nil, err
	}

	d := &Deps{Hub: events.NewHub(0)}

	// a missing binary is reported per session, not at startup
	d.Gateway = NewGateway(cfg, logger)

	var analysisCache quality.Cache
	if strings.TrimSpace(cfg.RedisURL) != "" {
		d.Cache, err = cache.NewCacheServiceFromURL(cfg.RedisURL, logger)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("init cache: %w", err)
		}
		analysisCache = cache.NewAnalysisStore(d.Cache, cfg.CacheTTL)
	}
	d.Meter = quality.NewMeter(quality.Config{Depth: cfg.AnalysisDepth, LossCap: cfg.LossCap}, analysisCache, logger)

	d.Archive, err = archive.Open(ctx, cfg.ArchiveDSN)
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("open archive: %w", err)
	}

	d.Manager, err = session.NewManager(session.Deps{
		Rules:   rules.New(),
		Opener:  Opener(d.Gateway),
		Meter:   d.Meter,
		Archive: d.Archive,
		Events:  d.Hub,
	}, session.Config{
		DefaultDepth:  cfg.DefaultDepth,
		SkillWindow:   cfg.SkillWindow,
		SessionTTL:    cfg.SessionTTL,
		EvictInterval: cfg.EvictInterval,
		EngineTimeout: cfg.EngineTimeout,
		Collision:     collision,
		Measurement:   measurement,
	}, logger)
	if err != nil {
		_ = d.Close()
		return nil, err
	}

	logger.Info("chess deps ready",
		zap.String("stockfish", cfg.StockfishPath),
		zap.Bool("redis", d.Cache != nil),
		zap.String("archive", archiveKind(cfg.ArchiveDSN)),
		zap.Int("default_depth", cfg.DefaultDepth),
	)
	return d, nil
}

func NewGateway(cfg *config.AppConfig, logger *zap.Logger) *chess.Gateway {
	return chess.NewGateway(chess.Config{
		BinaryPath:     cfg.StockfishPath,
		MaxEngines:     cfg.MaxEngines,
		Threads:        cfg.EngineThreads,
		HashMB:         cfg.EngineHashMB,
		RequestTimeout: cfg.EngineTimeout,
	}, logger)
}

// Opener adapts the gateway to the session manager.
func Opener(gw *chess.Gateway) session.EngineOpener {
	return session.OpenerFunc(func(ctx context.Context) (session.Engine, error) {
		h, err := gw.Open(ctx)
		if err != nil {
			return nil, err
		}
		return h, nil
	})
}

// Close releases everything in reverse order of construction.
func (d *Deps) Close() error {
	var errs []error
	if d.Manager != nil {
		errs = append(errs, d.Manager.Close())
	}
	if d.Archive != nil {
		errs = append(errs, d.Archive.Close())
	}
	if d.Cache != nil {
		errs = append(errs, d.Cache.Close())
	}
	if d.Gateway != nil {
		errs = append(errs, d.Gateway.Close())
	}
	return errors.Join(errs...)
}

func archiveKind(dsn string) string {
	if i := strings.Index(dsn, ":"); i > 0 {
		return dsn[:i]
	}
	if dsn == "" {
		return "memory"
	}
	return dsn
}
