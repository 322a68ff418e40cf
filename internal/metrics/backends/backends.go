// Package backends picks and installs the process metrics backend from
// configuration. It lives apart from internal/metrics because the backend
// packages import that one.
package backends

import (
	"context"
	"fmt"
	"log/slog"

	"autofill/internal/config"
	"autofill/internal/metrics"
	"autofill/internal/metrics/datadog"
	"autofill/internal/metrics/prompush"
)

// Install sets the backend named by cfg.Backend and returns a func that
// flushes and releases it. A backend that fails to start leaves the no-op
// backend installed and is reported, not fatal.
func Install(ctx context.Context, cfg config.Metrics, log *slog.Logger) func() {
	if log == nil {
		log = slog.Default()
	}
	job := cfg.Job
	if job == "" {
		job = "autofill"
	}

	switch cfg.Backend {
	case config.MetricsPushgateway:
		b, err := prompush.NewBackend(job, cfg.PushgatewayURL)
		if err != nil {
			log.Warn("metrics: prom push backend unavailable; using nop", "err", err)
			return func() {}
		}
		log.Info("metrics: backend installed", "backend", cfg.Backend, "url", cfg.PushgatewayURL, "job", job)
		metrics.SetBackend(b)
		return func() {
			if err := metrics.Flush(); err != nil {
				log.Warn("metrics: flush error", "err", err)
			}
			metrics.SetBackend(nil)
		}

	case config.MetricsDatadog:
		b, err := datadog.NewBackend(ctx, datadog.Options{
			JobName: job,
			Tags:    datadog.ParseTagsCSV(cfg.Tags),
		})
		if err != nil {
			log.Warn("metrics: datadog backend unavailable; using nop", "err", err)
			return func() {}
		}
		log.Info("metrics: backend installed", "backend", cfg.Backend, "job", job)
		metrics.SetBackend(b)
		return func() {
			if err := b.Close(); err != nil {
				log.Warn("metrics: datadog close error", "err", err)
			}
			metrics.SetBackend(nil)
		}

	case "", config.MetricsNone:
		return func() {}

	default:
		log.Warn("metrics: unknown backend; using nop", "backend", cfg.Backend)
		return func() {}
	}
}

// Describe is a one-line summary of cfg for startup logs.
func Describe(cfg config.Metrics) string {
	switch cfg.Backend {
	case config.MetricsPushgateway:
		return fmt.Sprintf("pushgateway %s job=%s", cfg.PushgatewayURL, cfg.Job)
	case config.MetricsDatadog:
		return fmt.Sprintf("datadog job=%s tags=%q", cfg.Job, cfg.Tags)
	default:
		return "none"
	}
}
