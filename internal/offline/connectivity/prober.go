package connectivity

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"ronda-app-go/pkg/logger"
)

const (
	DefaultProbeInterval  = 15 * time.Second
	DefaultProbeTimeout   = 5 * time.Second
	maxOfflineProbeWait   = 2 * time.Minute
	initialOfflineBackoff = time.Second
)

// HealthChecker is the server call a Prober polls. syncclient.Client
// implements it against /api/health.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Prober is a Signal driven by polling the server health check. While online
// it probes at a fixed interval; while offline the wait grows exponentially
// up to two minutes.
type Prober struct {
	*Manual

	server   HealthChecker
	interval time.Duration
	timeout  time.Duration
	log      logger.Logger
}

type ProberOption func(*Prober)

func WithInterval(interval time.Duration) ProberOption {
	return func(p *Prober) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithProbeTimeout bounds a single health check.
func WithProbeTimeout(timeout time.Duration) ProberOption {
	return func(p *Prober) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

func WithProberLogger(log logger.Logger) ProberOption {
	return func(p *Prober) {
		if log != nil {
			p.log = log
		}
	}
}

// NewProber polls server. The signal starts offline until the first probe
// succeeds.
func NewProber(server HealthChecker, opts ...ProberOption) *Prober {
	p := &Prober{
		Manual:   NewManual(false),
		server:   server,
		interval: DefaultProbeInterval,
		timeout:  DefaultProbeTimeout,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = logger.Component(p.log, "connectivity.prober")
	p.Manual.log = p.log
	return p
}

// Probe performs one health check and updates the signal. A check cut short
// by ctx leaves the signal unchanged.
func (p *Prober) Probe(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.server.Health(checkCtx)
	cancel()

	if ctx.Err() != nil {
		return p.Online()
	}
	if err != nil {
		if p.Online() {
			p.log.Warn("connectivity: server unreachable", "err", err)
		}
		p.Set(false)
		return false
	}
	if !p.Online() {
		p.log.Info("connectivity: server reachable")
	}
	p.Set(true)
	return true
}

// Run probes until ctx is done.
func (p *Prober) Run(ctx context.Context) error {
	offlineBackoff := backoff.NewExponentialBackOff()
	offlineBackoff.InitialInterval = initialOfflineBackoff
	offlineBackoff.MaxInterval = maxOfflineProbeWait

	for {
		wait := p.interval
		if p.Probe(ctx) {
			offlineBackoff.Reset()
		} else {
			wait = offlineBackoff.NextBackOff()
			if wait == backoff.Stop {
				wait = maxOfflineProbeWait
			}
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
