// Package connectivity tracks whether the server is reachable and mirrors the
// sync engine status for the calling layer.
package connectivity

import (
	"sync"

	"github.com/sourcegraph/conc/panics"

	"ronda-app-go/pkg/logger"
)

// Signal is the platform online/offline source.
type Signal interface {
	Online() bool
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// Manual is a Signal whose state is set by hand. Prober embeds it, tests and
// the agent's --offline flag use it directly.
type Manual struct {
	log logger.Logger

	mu     sync.Mutex
	online bool
	subs   []listener
	nextID int
}

type listener struct {
	id int
	fn func(bool)
}

func NewManual(online bool) *Manual {
	return &Manual{online: online, log: logger.Nop()}
}

func (m *Manual) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Set updates the state and notifies listeners only if it changed.
func (m *Manual) Set(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]listener, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, sub := range subs {
		var catcher panics.Catcher
		catcher.Try(func() { sub.fn(online) })
		if recovered := catcher.Recovered(); recovered != nil {
			m.log.InternalError("connectivity: listener panicked", recovered.AsError(), "online", online)
		}
	}
}

func (m *Manual) Subscribe(fn func(online bool)) func() {
	if fn == nil {
		return func() {}
	}

	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.subs = append(m.subs, listener{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, sub := range m.subs {
				if sub.id == id {
					m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
					return
				}
			}
		})
	}
}
