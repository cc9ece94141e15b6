package commands

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
	"go.trai.ch/ferry/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	flagUDP              = "udp"
	flagDNSCacheCapacity = "dns-cache-capacity"
	flagNoFile           = "nofile"
	flagLogLevel         = "log-level"
	flagLogJSON          = "log-json"
)

// addOverrideFlags registers the flags that take precedence over the configuration file.
func addOverrideFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool(flagUDP, false, "Run the UDP relay alongside the TCP relay")
	f.Int(flagDNSCacheCapacity, domain.DefaultDNSCacheCapacity, "Number of hostnames kept in the resolver cache (0 disables caching)")
	f.Uint64(flagNoFile, 0, "Raise the open file limit to this value")
	f.String(flagLogLevel, "info", "Log level (debug, info, warn, error)")
	f.Bool(flagLogJSON, false, "Log in JSON")
}

// loadConfig loads the file named by --config and applies every flag the user set.
func (c *CLI) loadConfig(cmd *cobra.Command) (*domain.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := c.loader.Load(path)
	if err != nil {
		return nil, err
	}

	if err := applyOverrides(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cmd *cobra.Command, cfg *domain.Config) error {
	f := cmd.Flags()

	if f.Changed(flagUDP) {
		cfg.EnableUDP, _ = f.GetBool(flagUDP)
	}

	if f.Changed(flagDNSCacheCapacity) {
		n, _ := f.GetInt(flagDNSCacheCapacity)
		if n < 0 {
			return flagInvalid(flagDNSCacheCapacity, "must not be negative", n)
		}
		cfg.DNSCacheCapacity = n
	}

	if f.Changed(flagNoFile) {
		cfg.Limits.NoFile, _ = f.GetUint64(flagNoFile)
	}

	if f.Changed(flagLogLevel) {
		s, _ := f.GetString(flagLogLevel)
		var level slog.Level
		if err := level.UnmarshalText([]byte(s)); err != nil {
			return flagInvalid(flagLogLevel, "is not a known level", s)
		}
		cfg.Log.Level = level
	}

	if f.Changed(flagLogJSON) {
		cfg.Log.JSON, _ = f.GetBool(flagLogJSON)
	}

	return nil
}

func flagInvalid(flag, reason string, value any) error {
	return errors.Join(domain.ErrConfigInvalid,
		zerr.With(zerr.With(zerr.New("--"+flag+" "+reason), "flag", flag), "value", value))
}
