package main

import (
	"github.com/spf13/cobra"

	"ronda-app-go/internal/offline/agent"
	"ronda-app-go/internal/offline/connectivity"
	"ronda-app-go/internal/offline/engine"
)

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch connectivity and replay the queue whenever the server comes back",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireContrato(); err != nil {
				return err
			}
			rt, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			observer := connectivity.NewObserver(rt.signal, rt.engine, connectivity.WithObserverLogger(opts.log))
			defer observer.Close()
			observer.OnChange(func(online bool, status engine.Status) {
				opts.log.Info("agent: status",
					"online", online,
					"syncing", status.IsSyncing,
					"pending", status.PendingCount,
					"dead_letters", status.DeadLetterCount,
					"last_error", status.LastError,
				)
			})

			agentOpts := []agent.Option{
				agent.WithSyncInterval(opts.cfg.SyncInterval),
				agent.WithLogger(opts.log),
			}
			if rt.prober != nil {
				agentOpts = append(agentOpts, agent.WithRunner(rt.prober))
			}

			opts.log.Info("agent: started",
				"server", opts.cfg.ServerURL,
				"contrato_id", opts.cfg.ContratoID,
				"backend", opts.cfg.QueueBackend,
				"pending", rt.store.Len(),
			)
			err = agent.New(rt.engine, rt.signal, agentOpts...).Run(cmd.Context())
			opts.log.Info("agent: stopped", "pending", rt.store.Len())
			return err
		},
	}
	cmd.Flags().DurationVar(&opts.cfg.SyncInterval, "sync-interval", opts.cfg.SyncInterval, "also drain on this interval while online (0 disables)")
	cmd.Flags().DurationVar(&opts.cfg.ProbeInterval, "probe-interval", opts.cfg.ProbeInterval, "health check interval while online")
	return cmd
}
