package connectivity

import (
	"sync"

	"github.com/sourcegraph/conc/panics"

	"ronda-app-go/internal/offline/engine"
	"ronda-app-go/pkg/logger"
)

// StatusSource is the part of the sync engine the observer mirrors.
type StatusSource interface {
	Status() engine.Status
	OnStatusChange(fn func(engine.Status)) (unsubscribe func())
}

// Observer mirrors the connectivity signal and the engine status. It never
// starts a drain; the agent reacts to transitions.
type Observer struct {
	log logger.Logger

	mu        sync.Mutex
	online    bool
	status    engine.Status
	listeners []func(online bool, status engine.Status)

	unsubscribeSignal func()
	unsubscribeEngine func()
	closeOnce         sync.Once
}

type ObserverOption func(*Observer)

func WithObserverLogger(log logger.Logger) ObserverOption {
	return func(o *Observer) {
		if log != nil {
			o.log = log
		}
	}
}

func NewObserver(signal Signal, source StatusSource, opts ...ObserverOption) *Observer {
	o := &Observer{
		log:    logger.Nop(),
		online: signal.Online(),
		status: source.Status(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = logger.Component(o.log, "connectivity.observer")
	o.unsubscribeSignal = signal.Subscribe(func(online bool) {
		o.mu.Lock()
		o.online = online
		o.status.IsOnline = online
		o.mu.Unlock()
		o.notify()
	})
	o.unsubscribeEngine = source.OnStatusChange(func(status engine.Status) {
		o.mu.Lock()
		o.status = status
		o.mu.Unlock()
		o.notify()
	})
	return o
}

func (o *Observer) IsOnline() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.online
}

func (o *Observer) SyncStatus() engine.Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// OnChange registers fn for every mirrored change. Must be called before the
// observer is shared across goroutines.
func (o *Observer) OnChange(fn func(online bool, status engine.Status)) {
	if fn == nil {
		return
	}
	o.mu.Lock()
	o.listeners = append(o.listeners, fn)
	o.mu.Unlock()
}

// Close detaches from the signal and the engine. Safe to call more than once.
func (o *Observer) Close() {
	o.closeOnce.Do(func() {
		o.unsubscribeSignal()
		o.unsubscribeEngine()
	})
}

func (o *Observer) notify() {
	o.mu.Lock()
	online := o.online
	status := o.status
	listeners := make([]func(bool, engine.Status), len(o.listeners))
	copy(listeners, o.listeners)
	o.mu.Unlock()

	for _, fn := range listeners {
		var catcher panics.Catcher
		catcher.Try(func() { fn(online, status) })
		if recovered := catcher.Recovered(); recovered != nil {
			o.log.InternalError("connectivity: observer listener panicked", recovered.AsError(), "online", online)
		}
	}
}
