package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/ferry/internal/app"
	"go.trai.ch/ferry/internal/core/domain"
	"go.trai.ch/ferry/internal/ui/style"
)

func (c *CLI) newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration file and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("config")
			printSummary(cmd.OutOrStdout(), path, cfg)
			return nil
		},
	}
	addOverrideFlags(cmd)
	return cmd
}

func printSummary(w io.Writer, path string, cfg *domain.Config) {
	fmt.Fprintf(w, "%s %s is valid\n", style.Check, path)
	fmt.Fprintf(w, "  %s %s\n", style.Key("relays:"), app.ShapeOf(cfg))

	fmt.Fprintf(w, "  %s\n", style.Key("servers:"))
	for _, s := range cfg.Servers {
		fmt.Fprintf(w, "    %s %s %s %s (idle %s)\n",
			s.DisplayName(), s.Listen, style.Arrow, s.Target, s.IdleTimeout(cfg.Timeout))
	}

	if cfg.EnableUDP {
		fmt.Fprintf(w, "  %s %d associations, idle %s\n",
			style.Key("udp:"), cfg.UDPMaxAssociations(), cfg.UDPIdleTimeout())
	}

	upstream := "system resolver"
	if len(cfg.DNS.Nameservers) > 0 {
		upstream = strings.Join(cfg.DNS.Nameservers, ", ")
	}
	fmt.Fprintf(w, "  %s %d entries %s %s\n", style.Key("dns cache:"), cfg.DNSCacheCapacity, style.Dot, upstream)
}
