// Package agent is the calling layer around the sync engine: it decides when a
// drain runs.
package agent

import (
	"context"
	"errors"
	"time"

	"github.com/sourcegraph/conc"

	"ronda-app-go/internal/offline/connectivity"
	"ronda-app-go/internal/offline/engine"
	"ronda-app-go/pkg/logger"
)

type Drainer interface {
	ProcessQueue(ctx context.Context) engine.DrainResult
	ConnectivityChanged()
}

// Runner is a blocking background loop started by Run, e.g. the health prober.
type Runner interface {
	Run(ctx context.Context) error
}

type Agent struct {
	drainer  Drainer
	signal   connectivity.Signal
	runner   Runner
	interval time.Duration
	log      logger.Logger

	triggers chan struct{}
}

type Option func(*Agent)

// WithSyncInterval adds a periodic drain. Zero disables it.
func WithSyncInterval(interval time.Duration) Option {
	return func(a *Agent) {
		if interval >= 0 {
			a.interval = interval
		}
	}
}

func WithRunner(runner Runner) Option {
	return func(a *Agent) {
		a.runner = runner
	}
}

func WithLogger(log logger.Logger) Option {
	return func(a *Agent) {
		if log != nil {
			a.log = log
		}
	}
}

func New(drainer Drainer, signal connectivity.Signal, opts ...Option) *Agent {
	a := &Agent{
		drainer:  drainer,
		signal:   signal,
		log:      logger.Nop(),
		triggers: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = logger.Component(a.log, "offline.agent")
	return a
}

// ForceSync drains right away, bypassing the trigger loop.
func (a *Agent) ForceSync(ctx context.Context) engine.DrainResult {
	return a.drainer.ProcessQueue(ctx)
}

// Trigger asks the running loop for a drain. Requests made while one is
// already pending are merged.
func (a *Agent) Trigger() {
	select {
	case a.triggers <- struct{}{}:
	default:
	}
}

// Run drains on every offline to online transition, on the optional interval
// and once at start when online. It returns when ctx is done.
func (a *Agent) Run(ctx context.Context) error {
	unsubscribe := a.signal.Subscribe(a.onConnectivity)
	defer unsubscribe()

	if a.signal.Online() {
		a.Trigger()
	}

	var wg conc.WaitGroup
	if a.runner != nil {
		wg.Go(func() {
			if err := a.runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				a.log.InternalError("agent: background runner stopped", err)
			}
		})
	}
	wg.Go(func() {
		a.loop(ctx)
	})
	wg.Wait()
	return nil
}

func (a *Agent) loop(ctx context.Context) {
	var tick <-chan time.Time
	if a.interval > 0 {
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.triggers:
			a.drain(ctx, "trigger")
		case <-tick:
			a.drain(ctx, "interval")
		}
	}
}

func (a *Agent) drain(ctx context.Context, reason string) {
	result := a.drainer.ProcessQueue(ctx)
	if result.Started {
		a.log.Debug("agent: drain completed", "reason", reason, "replayed", result.Replayed, "remaining", result.Remaining)
	}
}

func (a *Agent) onConnectivity(online bool) {
	a.drainer.ConnectivityChanged()
	if online {
		a.log.Info("agent: back online, scheduling sync")
		a.Trigger()
	}
}
