package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"ronda-app-go/internal/offline/engine"
	"ronda-app-go/internal/offline/queue"
)

func newEnqueueCmd(opts *options) *cobra.Command {
	var (
		kind     string
		entity   string
		entityID string
		payload  string
	)

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Record a mutation in the local queue",
		Example: `  ronda-agent enqueue --kind CREATE --entity ronda --entity-id 7f0c... --payload '{"data":"2024-03-01"}'
  ronda-agent enqueue --kind UPDATE --entity item_relevante --entity-id 1a2b... --payload @item.json
  ronda-agent enqueue --kind DELETE --entity area_tecnica --entity-id 9c8d...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedKind, err := queue.ParseKind(kind)
			if err != nil {
				return err
			}
			body, err := readPayload(cmd.InOrStdin(), payload)
			if err != nil {
				return err
			}

			rt, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			op, err := rt.engine.Enqueue(cmd.Context(), queue.Operation{
				Kind:     parsedKind,
				Entity:   strings.ToLower(strings.TrimSpace(entity)),
				EntityID: strings.TrimSpace(entityID),
				Payload:  body,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "QUEUED %s %s %s\n", op.ID, op.Kind, op.Entity)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "CREATE, UPDATE or DELETE")
	cmd.Flags().StringVar(&entity, "entity", "", "ronda, area_tecnica, item_relevante or agenda_item")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "id of the record the mutation targets")
	cmd.Flags().StringVar(&payload, "payload", "", "JSON body, @file to read it from a file or - for stdin")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

// readPayload accepts inline JSON, @path or - for stdin. An empty value means
// no payload.
func readPayload(stdin io.Reader, value string) (json.RawMessage, error) {
	var data []byte
	switch {
	case value == "":
		return nil, nil
	case value == "-":
		read, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read payload from stdin: %w", err)
		}
		data = read
	case strings.HasPrefix(value, "@"):
		read, err := os.ReadFile(strings.TrimPrefix(value, "@"))
		if err != nil {
			return nil, fmt.Errorf("read payload file: %w", err)
		}
		data = read
	default:
		data = []byte(value)
	}

	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, errors.New("payload is not valid JSON")
	}
	return json.RawMessage(data), nil
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity and queue counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.probe(cmd.Context())
			return printJSON(cmd.OutOrStdout(), rt.engine.Status())
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List queued operations in replay order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			return printJSON(cmd.OutOrStdout(), rt.store.PeekAll())
		},
	}
}

type syncReport struct {
	Online       bool `json:"online"`
	Started      bool `json:"started"`
	Replayed     int  `json:"replayed"`
	Failed       int  `json:"failed"`
	DeadLettered int  `json:"dead_lettered"`
	Held         int  `json:"held"`
	Remaining    int  `json:"remaining"`
	Aborted      bool `json:"aborted"`
	Interrupted  bool `json:"interrupted"`
}

func newSyncReport(online bool, result engine.DrainResult) syncReport {
	return syncReport{
		Online:       online,
		Started:      result.Started,
		Replayed:     result.Replayed,
		Failed:       result.Failed,
		DeadLettered: result.DeadLettered,
		Held:         result.Held,
		Remaining:    result.Remaining,
		Aborted:      result.Aborted,
		Interrupted:  result.Interrupted,
	}
}

func newSyncCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Probe the server and drain the queue once",
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

			online := rt.probe(cmd.Context())
			result := rt.engine.ProcessQueue(cmd.Context())
			if err := printJSON(cmd.OutOrStdout(), newSyncReport(online, result)); err != nil {
				return err
			}
			if !online && rt.store.Len() > 0 {
				return fmt.Errorf("server %s unreachable, %d operations still queued", opts.cfg.ServerURL, rt.store.Len())
			}
			return nil
		},
	}
}

func newDeadLettersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dead-letters",
		Short: "List operations the engine gave up on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			return printJSON(cmd.OutOrStdout(), rt.store.DeadLetters())
		},
	}
}

func newRequeueCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "requeue",
		Short: "Move every dead letter back to the tail of the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			count, err := rt.store.RequeueDeadLetters(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "REQUEUED %d\n", count)
			return nil
		},
	}
}

func newClearCmd(opts *options) *cobra.Command {
	var deadLetters bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every queued operation",
		Long: `Drop every queued operation. With --dead-letters the dead letters are dropped as well.
A queue file that can no longer be read is replaced by an empty one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.openQueue(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close()

			return clearQueue(cmd.Context(), rt.store, deadLetters)
		},
	}
	cmd.Flags().BoolVar(&deadLetters, "dead-letters", false, "also drop dead letters")
	return cmd
}

func clearQueue(ctx context.Context, store *queue.Store, deadLetters bool) error {
	if err := store.Clear(ctx); err != nil {
		return err
	}
	if deadLetters {
		return store.ClearDeadLetters(ctx)
	}
	return nil
}
