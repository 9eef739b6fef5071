package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"ronda-app-go/internal/config"
	"ronda-app-go/internal/offline/connectivity"
	"ronda-app-go/internal/offline/engine"
	"ronda-app-go/internal/offline/kvstore"
	"ronda-app-go/internal/offline/queue"
	"ronda-app-go/internal/syncclient"
	"ronda-app-go/pkg/logger"
)

var errMissingContrato = errors.New("--contrato (or AGENT_CONTRATO_ID) is required")

// options holds the global flags. Defaults come from the AGENT_* environment.
type options struct {
	cfg     config.AgentConfig
	offline bool
	log     logger.Logger
	meter   metric.Meter
}

// runtime is everything a command needs to touch the local queue.
type runtime struct {
	kv     kvstore.Store
	store  *queue.Store
	signal connectivity.Signal
	prober *connectivity.Prober
	engine *engine.Engine
}

func (r *runtime) Close() error {
	return r.kv.Close()
}

// probe refreshes the connectivity signal once. It reports false without
// touching the network when the agent runs with --offline.
func (r *runtime) probe(ctx context.Context) bool {
	if r.prober == nil {
		return r.signal.Online()
	}
	return r.prober.Probe(ctx)
}

// newRootCmd builds the command tree. A nil meter records on the global
// meter provider.
func newRootCmd(cfg config.AgentConfig, log logger.Logger, meter metric.Meter) *cobra.Command {
	opts := &options{cfg: cfg, log: logger.Component(log, "agent"), meter: meter}

	root := &cobra.Command{
		Use:   "ronda-agent",
		Short: "Offline queue and sync agent for ronda devices",
		Long: `ronda-agent keeps the mutations recorded on a device while the server is
unreachable and replays them, in order, once connectivity returns.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.cfg.ServerURL, "server", cfg.ServerURL, "server base URL")
	flags.StringVar(&opts.cfg.ContratoID, "contrato", cfg.ContratoID, "contrato the device syncs to")
	flags.StringVar(&opts.cfg.QueueBackend, "queue-backend", cfg.QueueBackend, "queue storage: memory, file or sqlite")
	flags.StringVar(&opts.cfg.QueuePath, "queue-path", cfg.QueuePath, "queue directory (file) or database file (sqlite)")
	flags.IntVar(&opts.cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "dead-letter an operation after this many failures (0 keeps retrying)")
	flags.StringVar(&opts.cfg.FailurePolicy, "failure-policy", cfg.FailurePolicy, "what a drain does after a failed operation: abort or skip")
	flags.DurationVar(&opts.cfg.OperationTimeout, "operation-timeout", cfg.OperationTimeout, "timeout for one replayed operation")
	flags.BoolVar(&opts.offline, "offline", false, "never contact the server")

	root.AddCommand(
		newEnqueueCmd(opts),
		newStatusCmd(opts),
		newListCmd(opts),
		newSyncCmd(opts),
		newDeadLettersCmd(opts),
		newRequeueCmd(opts),
		newClearCmd(opts),
		newRunCmd(opts),
		newOccurrencesCmd(),
	)
	return root
}

func (o *options) open(ctx context.Context) (*runtime, error) {
	return o.openQueue(ctx, false)
}

// openQueue opens the local queue. With discardCorrupt set, a document that
// no longer decodes is logged and the queue starts empty; the next write
// replaces it.
func (o *options) openQueue(ctx context.Context, discardCorrupt bool) (*runtime, error) {
	policy, err := engine.ParseFailurePolicy(o.cfg.FailurePolicy)
	if err != nil {
		return nil, err
	}

	kv, err := kvstore.Open(o.cfg.QueueBackend, o.cfg.QueuePath)
	if err != nil {
		return nil, fmt.Errorf("open queue backend: %w", err)
	}
	store, err := queue.Open(ctx, kv)
	if discardCorrupt && errors.Is(err, queue.ErrCorruptQueue) {
		o.log.Warn("agent: discarding corrupt queue", "path", o.cfg.QueuePath, "err", err)
		err = nil
	}
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("load queue: %w", err)
	}

	remote := syncclient.New(o.cfg.ServerURL, o.cfg.ContratoID, syncclient.WithLogger(o.log))

	rt := &runtime{kv: kv, store: store}
	if o.offline {
		rt.signal = connectivity.NewManual(false)
	} else {
		rt.prober = connectivity.NewProber(remote,
			connectivity.WithInterval(o.cfg.ProbeInterval),
			connectivity.WithProberLogger(o.log),
		)
		rt.signal = rt.prober
	}

	rt.engine = engine.New(store, remote, rt.signal,
		engine.WithLogger(o.log),
		engine.WithOperationTimeout(o.cfg.OperationTimeout),
		engine.WithMaxAttempts(o.cfg.MaxAttempts),
		engine.WithFailurePolicy(policy),
		engine.WithMeter(o.meter),
	)
	return rt, nil
}

func (o *options) requireContrato() error {
	if strings.TrimSpace(o.cfg.ContratoID) == "" {
		return errMissingContrato
	}
	return nil
}

func printJSON(w io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
