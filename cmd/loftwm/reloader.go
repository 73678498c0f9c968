package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/loftwm/loftwm/internal/config"
	"github.com/loftwm/loftwm/internal/core"
	"github.com/loftwm/loftwm/internal/engine"
	"github.com/loftwm/loftwm/internal/metrics"
)

// configReloader re-reads the config file and swaps it into the running
// engine. A rejected document leaves the previous one in place and logs the
// diff against the last accepted version.
type configReloader struct {
	path           string
	logger         *log.Logger
	engine         *engine.Engine
	metrics        *metrics.Collector
	lastSerialized []byte
}

func newConfigReloader(path string, logger *log.Logger, eng *engine.Engine, collector *metrics.Collector, serialized []byte) *configReloader {
	return &configReloader{
		path:           path,
		logger:         logger,
		engine:         eng,
		metrics:        collector,
		lastSerialized: append([]byte(nil), serialized...),
	}
}

func (r *configReloader) Reload(ctx context.Context, reason string) error {
	r.logger.Info("reloading config", "reason", reason)
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Parse(raw)
	if err != nil {
		r.logDiff(raw)
		return err
	}

	err = r.engine.Do(ctx, func(*core.Core) error {
		r.engine.ApplyConfig(cfg)
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply config: %w", err)
	}
	r.metrics.SetEnabled(cfg.Metrics)

	r.lastSerialized = append(r.lastSerialized[:0], raw...)
	return nil
}

func (r *configReloader) logDiff(current []byte) {
	diff := config.DiffSerialized(r.lastSerialized, current)
	if diff == "" {
		r.logger.Warn("config change rejected; unable to compute diff vs last valid config")
		return
	}
	r.logger.Warn("config change rejected", "diff", diff)
}
