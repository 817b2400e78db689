package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hamed0406/probeagent/internal/config"
	"github.com/hamed0406/probeagent/internal/logging"
	"github.com/hamed0406/probeagent/internal/scheduler"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drain the failure queue, then probe and report every enabled target",
		Long: "Runs once and exits unless --interval (or the interval key) is set. " +
			"If another instance holds the lock the run is skipped and the exit status is 0.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			log, err := logging.NewLogger(cfg.LoggingOptions())
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = log.Sync() }()
			config.WarnInsecurePermissions(log, cfg.File)

			a, err := wireAgent(cfg, log)
			if err != nil {
				log.Error("wire_failed", zap.Error(err))
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Warn("close_failed", zap.Error(err))
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = a.Runner.Run(ctx)
			if errors.Is(err, scheduler.ErrAlreadyRunning) {
				fmt.Fprintln(cmd.ErrOrStderr(), "another instance is running; skipped")
				return nil
			}
			return err
		},
	}
	cmd.Flags().Duration("interval", 0, "repeat every interval until interrupted (0 runs once)")
	return cmd
}
