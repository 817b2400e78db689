package main

import (
	"fmt"
	"net"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hamed0406/probeagent/internal/probe"
)

func newTargetsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List configured targets and the endpoints each run will probe",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "URL\tENABLED\tHOST\tPORT\tTLS\tNS_DOMAIN")
			for _, t := range cfg.Targets() {
				ep, err := probe.ParseEndpoint(t.URL)
				if err != nil {
					fmt.Fprintf(tw, "%s\t%t\tinvalid: %v\t\t\t\n", t.URL, t.Enabled, err)
					continue
				}
				ns := "-" // the authoritative probe is skipped for IP literals
				if net.ParseIP(ep.Host) == nil {
					ns = probe.BaseDomain(ep.Host)
				}
				fmt.Fprintf(tw, "%s\t%t\t%s\t%s\t%t\t%s\n",
					t.URL, t.Enabled, ep.Host, strconv.Itoa(ep.Port), ep.TLS(), ns)
			}
			return tw.Flush()
		},
	}
}
