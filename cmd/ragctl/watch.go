package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vehicle-rag-be/pkg/events"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newWatchCmd(d *deps, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print ingest events published on NATS until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := d.loadConfig()
			if cfg.Events.NatsURL == "" {
				return errors.New("NATS_URL is not set")
			}

			out := cmd.OutOrStdout()
			color.New(color.Faint).Fprintf(out, "Watching %s ...\n", cfg.Events.NatsURL)

			return d.subscribeNats(cmd.Context(), cfg.Events.NatsURL, func(ctx context.Context, event events.Event) error {
				if opts.json {
					raw, err := events.Marshal(event)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, string(raw))
					return nil
				}
				files, _ := json.Marshal(event.Payload()["files"])
				color.New(color.FgYellow).Fprintf(out, "%s ", event.Timestamp().Format(time.RFC3339))
				fmt.Fprintf(out, "%s chunks=%v files=%s\n", event.EventType(), event.Payload()["chunks"], files)
				return nil
			})
		},
	}
}
