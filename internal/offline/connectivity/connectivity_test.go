package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ronda-app-go/internal/offline/engine"
	"ronda-app-go/internal/offline/kvstore"
	"ronda-app-go/internal/offline/queue"
	"ronda-app-go/internal/syncclient"
)

func TestManualNotifiesOnlyOnChange(t *testing.T) {
	signal := NewManual(false)

	var got []bool
	unsubscribe := signal.Subscribe(func(online bool) { got = append(got, online) })
	signal.Subscribe(func(bool) { panic("listener failure") })

	signal.Set(false)
	signal.Set(true)
	signal.Set(true)
	signal.Set(false)

	if diff := cmp.Diff([]bool{true, false}, got); diff != "" {
		t.Fatalf("unexpected notifications (-want +got):\n%s", diff)
	}

	unsubscribe()
	signal.Set(true)
	if len(got) != 2 {
		t.Fatalf("unsubscribed listener still called: %v", got)
	}
	if !signal.Online() {
		t.Fatalf("expected online state")
	}
}

func TestProberFollowsHealthEndpoint(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			http.NotFound(w, r)
			return
		}
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	prober := NewProber(syncclient.New(server.URL+"/", ""))
	var transitions []bool
	prober.Subscribe(func(online bool) { transitions = append(transitions, online) })

	if !prober.Probe(context.Background()) || !prober.Online() {
		t.Fatalf("expected online after healthy probe")
	}
	healthy.Store(false)
	if prober.Probe(context.Background()) || prober.Online() {
		t.Fatalf("expected offline after failing probe")
	}
	if diff := cmp.Diff([]bool{true, false}, transitions); diff != "" {
		t.Fatalf("unexpected transitions (-want +got):\n%s", diff)
	}
}

func TestProberUnreachableServerIsOffline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	prober := NewProber(syncclient.New(url, ""), WithProbeTimeout(time.Second))
	if prober.Probe(context.Background()) {
		t.Fatalf("expected closed server to be unreachable")
	}
}

type blockingHealth struct{}

func (blockingHealth) Health(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestProberTimesOutSlowHealthCheck(t *testing.T) {
	prober := NewProber(blockingHealth{}, WithProbeTimeout(10*time.Millisecond))
	prober.Set(true)

	if prober.Probe(context.Background()) {
		t.Fatalf("expected a hanging health check to count as offline")
	}
	if prober.Online() {
		t.Fatalf("expected offline signal")
	}
}

func TestProberRunStopsWithContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	prober := NewProber(syncclient.New(server.URL, ""), WithInterval(5*time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := prober.Run(ctx); err == nil {
		t.Fatalf("expected context error from Run")
	}
	if !prober.Online() {
		t.Fatalf("expected online after probing a healthy server")
	}
}

func TestObserverMirrorsSignalAndEngine(t *testing.T) {
	store, err := queue.Open(context.Background(), kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	signal := NewManual(false)
	eng := engine.New(store, nopRemote{}, signal)
	observer := NewObserver(signal, eng)

	changes := 0
	observer.OnChange(func(bool, engine.Status) { changes++ })

	if observer.IsOnline() {
		t.Fatalf("expected offline mirror")
	}

	_, err = eng.Enqueue(context.Background(), queue.Operation{
		Kind: queue.KindCreate, Entity: "ronda", EntityID: "r1", Payload: []byte(`{"nome":"Ronda Teste"}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if observer.SyncStatus().PendingCount != 1 {
		t.Fatalf("expected mirrored pending count, got %+v", observer.SyncStatus())
	}

	signal.Set(true)
	if !observer.IsOnline() || !observer.SyncStatus().IsOnline {
		t.Fatalf("expected online mirror")
	}
	if store.Len() != 1 {
		t.Fatalf("observer must not trigger a drain")
	}

	observer.Close()
	observer.Close()
	before := changes
	signal.Set(false)
	eng.ConnectivityChanged()
	if changes != before {
		t.Fatalf("closed observer still receives changes")
	}
}

func TestObserverIsolatesPanickingListener(t *testing.T) {
	store, err := queue.Open(context.Background(), kvstore.NewMemory())
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	signal := NewManual(false)
	eng := engine.New(store, nopRemote{}, signal)
	observer := NewObserver(signal, eng)
	defer observer.Close()

	var seen []bool
	observer.OnChange(func(bool, engine.Status) { panic("listener failure") })
	observer.OnChange(func(online bool, _ engine.Status) { seen = append(seen, online) })

	var signalSubscriberCalls int
	signal.Subscribe(func(bool) { signalSubscriberCalls++ })

	signal.Set(true)
	_, err = eng.Enqueue(context.Background(), queue.Operation{
		Kind: queue.KindDelete, Entity: "ronda", EntityID: "r1",
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if diff := cmp.Diff([]bool{true, true}, seen); diff != "" {
		t.Fatalf("later listener missed changes (-want +got):\n%s", diff)
	}
	if signalSubscriberCalls != 1 {
		t.Fatalf("expected the signal to keep notifying its subscribers, got %d", signalSubscriberCalls)
	}
	if observer.SyncStatus().PendingCount != 1 {
		t.Fatalf("expected mirrored pending count, got %+v", observer.SyncStatus())
	}
}

type nopRemote struct{}

func (nopRemote) Create(context.Context, string, string, []byte) error { return nil }
func (nopRemote) Update(context.Context, string, string, []byte) error { return nil }
func (nopRemote) Delete(context.Context, string, string) error         { return nil }
