package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ronda-app-go/internal/config"
	"ronda-app-go/internal/offline/engine"
	"ronda-app-go/internal/telemetry"
	"ronda-app-go/pkg/logger"
)

const metricsFlushTimeout = 5 * time.Second

func main() {
	// Command output goes to stdout, so logs must not.
	opts := logger.OptionsFromEnv()
	opts.Output = os.Stderr
	opts.Service = "ronda-agent"
	os.Exit(run(logger.New(opts)))
}

func run(log logger.Logger) int {
	cfg, err := config.Load(log)
	if err != nil {
		log.Critical("agent: config load failed", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, err := telemetry.NewProvider(ctx, cfg.Metrics, "ronda-agent")
	if err != nil {
		// The queue works without metrics.
		log.Warn("agent: metrics export disabled", "err", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), metricsFlushTimeout)
		defer cancel()
		if err := metrics.Shutdown(flushCtx); err != nil {
			log.Warn("agent: metrics flush failed", "err", err)
		}
	}()

	root := newRootCmd(cfg.Agent, log, metrics.Meter(engine.MeterName))
	if err := root.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
