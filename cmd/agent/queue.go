package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hamed0406/probeagent/internal/lock"
	"github.com/hamed0406/probeagent/internal/queue"
)

func newQueueCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show payloads waiting for redelivery",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			store, closeStore, err := openQueueStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			entries, err := queue.New(store, zap.NewNop(), 0).Entries(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(out)
				for _, e := range entries {
					if err := enc.Encode(e); err != nil {
						return err
					}
				}
				return nil
			}

			if len(entries) == 0 {
				fmt.Fprintf(out, "queue is empty (%s: %s)\n", cfg.Queue.Backend, cfg.Queue.Path)
				return nil
			}
			fmt.Fprintf(out, "%d pending (%s: %s)\n", len(entries), cfg.Queue.Backend, cfg.Queue.Path)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "URL\tMETRICS")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%d\n", e.URL, len(e.Metrics))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("json", false, "print one JSON entry per line")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Discard every queued payload",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			// Hold the run lock so a concurrent run cannot rewrite the store underneath us.
			lease, err := lock.TryAcquire(cfg.LockPath)
			if errors.Is(err, lock.ErrLocked) {
				return fmt.Errorf("a run is in progress (%s); try again later", cfg.LockPath)
			}
			if err != nil {
				return err
			}
			defer func() { _ = lease.Release() }()

			store, closeStore, err := openQueueStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			if err := store.Delete(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "queue cleared")
			return err
		},
	})
	return cmd
}
