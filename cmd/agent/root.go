package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hamed0406/probeagent/internal/config"
	"github.com/hamed0406/probeagent/internal/errs"
)

// NewRootCmd builds the agent CLI. Without a subcommand it performs a run.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "probe-agent",
		Short:         "Network-health probe agent",
		Long:          "probe-agent times DNS, TCP, TLS and HTTP for configured endpoints and ships the measurements to a collector.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd, v)
		},
	}

	// Global flags; bindFlags maps them onto viper keys.
	root.PersistentFlags().StringP("config", "c", os.Getenv(config.EnvPrefix+"_CONFIG"), "path to config file (JSON or YAML)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().Bool("log-stderr", false, "also write logs to stderr")

	run := newRunCmd(v)
	root.RunE = run.RunE
	root.Flags().AddFlagSet(run.Flags())

	root.AddCommand(
		run,
		newQueueCmd(v),
		newTargetsCmd(v),
		newVersionCmd(),
	)
	return root
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	pf := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{
		"log_level":  "log-level",
		"log_stderr": "log-stderr",
	} {
		if f := pf.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return errs.Wrap(err, errs.CodeConfigInvalid, "binding flag", errs.Field("flag", flag))
			}
		}
	}
	if f := cmd.Flags().Lookup("interval"); f != nil && f.Changed {
		if err := v.BindPFlag("interval", f); err != nil {
			return errs.Wrap(err, errs.CodeConfigInvalid, "binding flag", errs.Field("flag", "interval"))
		}
	}
	return nil
}

func loadConfig(cmd *cobra.Command, v *viper.Viper) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(v, path)
}
