package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/arifinrio95/auto-dashboard/internal/config"
	"github.com/arifinrio95/auto-dashboard/internal/metrics"
	"github.com/arifinrio95/auto-dashboard/internal/metrics/datadog"
)

// setupMetrics installs the configured metrics backend. The returned func
// flushes and closes it; call it once on the way out.
//
// A backend that fails to start is logged and left as nop: metrics never
// fail a command.
func setupMetrics(ctx context.Context, cfg config.Metrics, logger *slog.Logger) func() {
	switch strings.ToLower(cfg.Backend) {
	case "datadog":
		// Buffers in memory, submits every FlushEvery and once more on Close.
		b, err := datadog.NewBackend(ctx, datadog.Options{
			JobName:    cfg.Job,
			Tags:       cfg.Tags,
			FlushEvery: cfg.FlushEvery,
		})
		if err != nil {
			logger.Warn("metrics: datadog backend unavailable; using nop", "err", err)
			return func() {}
		}
		logger.Debug("metrics: datadog backend", "job", cfg.Job, "tags", cfg.Tags, "flush_every", cfg.FlushEvery)
		metrics.SetBackend(b)
		return func() {
			// Close stops the flush loop and submits what is left.
			if err := b.Close(); err != nil {
				logger.Warn("metrics: datadog close/flush error", "err", err)
			}
			metrics.SetBackend(nil)
		}

	default:
		logger.Debug("metrics: disabled", "backend", cfg.Backend)
		return func() {}
	}
}
