// Package config provides the configuration loader for ferry.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/ferry/internal/core/domain"
	"go.trai.ch/ferry/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

const (
	formatPretty = "pretty"
	formatJSON   = "json"
	dnsPort      = "53"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the configuration file at path. An empty path selects domain.DefaultConfigFile.
func (l *Loader) Load(path string) (*domain.Config, error) {
	if path == "" {
		path = domain.DefaultConfigFile
	}

	var file File
	if err := readAndUnmarshalYAML(path, &file); err != nil {
		return nil, zerr.With(err, "path", path)
	}

	cfg, err := l.build(&file)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}

	l.Logger.Debug("configuration loaded", "path", path, "servers", len(cfg.Servers))
	return cfg, nil
}

func (l *Loader) build(file *File) (*domain.Config, error) {
	if len(file.Servers) == 0 {
		return nil, errors.Join(domain.ErrConfigInvalid, domain.ErrNoServers)
	}

	cfg := &domain.Config{
		EnableUDP:        file.EnableUDP,
		DNSCacheCapacity: domain.DefaultDNSCacheCapacity,
		ReusePort:        file.ReusePort,
		Limits: domain.LimitsConfig{
			NoFile:         file.Limits.NoFile,
			MaxConnections: file.Limits.MaxConnections,
		},
		UDP: domain.UDPConfig{
			MaxAssociations: file.UDP.MaxAssociations,
		},
	}

	var err error
	if cfg.Timeout, err = parseDuration("timeout", file.Timeout, domain.DefaultTimeout); err != nil {
		return nil, err
	}

	if cfg.Servers, err = l.buildServers(file.Servers); err != nil {
		return nil, err
	}

	if file.DNSCacheCapacity != nil {
		if *file.DNSCacheCapacity < 0 {
			return nil, invalid("dns_cache_capacity", "must not be negative", *file.DNSCacheCapacity)
		}
		cfg.DNSCacheCapacity = *file.DNSCacheCapacity
	}

	if cfg.DNS, err = buildDNS(file.DNS); err != nil {
		return nil, err
	}

	if file.UDP.MaxAssociations < 0 {
		return nil, invalid("udp.max_associations", "must not be negative", file.UDP.MaxAssociations)
	}
	if cfg.UDP.Timeout, err = parseDuration("udp.timeout", file.UDP.Timeout, domain.DefaultUDPTimeout); err != nil {
		return nil, err
	}

	if file.Limits.MaxConnections < 0 {
		return nil, invalid("limits.max_connections", "must not be negative", file.Limits.MaxConnections)
	}

	if cfg.Log, err = buildLog(file.Log); err != nil {
		return nil, err
	}

	if !cfg.EnableUDP && (file.UDP.Timeout != "" || file.UDP.MaxAssociations != 0) {
		l.Logger.Warn("'udp' settings have no effect while enable_udp is false")
	}

	return cfg, nil
}

func (l *Loader) buildServers(dtos []ServerDTO) ([]domain.ServerConfig, error) {
	servers := make([]domain.ServerConfig, 0, len(dtos))
	listens := make(map[string]int, len(dtos))
	names := make(map[string]int, len(dtos))

	for i, dto := range dtos {
		field := fmt.Sprintf("servers[%d]", i)

		if err := validateHostPort(field+".listen", dto.Listen, true); err != nil {
			return nil, err
		}
		if err := validateHostPort(field+".target", dto.Target, false); err != nil {
			return nil, err
		}

		if prev, ok := listens[dto.Listen]; ok {
			return nil, invalid(field+".listen", fmt.Sprintf("duplicates servers[%d]", prev), dto.Listen)
		}
		listens[dto.Listen] = i

		if dto.Name != "" {
			if prev, ok := names[dto.Name]; ok {
				return nil, invalid(field+".name", fmt.Sprintf("duplicates servers[%d]", prev), dto.Name)
			}
			names[dto.Name] = i
		}

		timeout, err := parseDuration(field+".timeout", dto.Timeout, 0)
		if err != nil {
			return nil, err
		}

		servers = append(servers, domain.ServerConfig{
			Name:    dto.Name,
			Listen:  dto.Listen,
			Target:  dto.Target,
			Timeout: timeout,
		})
	}

	return servers, nil
}

func buildDNS(dto DNSDTO) (domain.DNSConfig, error) {
	var cfg domain.DNSConfig
	var err error

	if cfg.TTL, err = parseDuration("dns.ttl", dto.TTL, domain.DefaultDNSTTL); err != nil {
		return cfg, err
	}
	if cfg.Timeout, err = parseDuration("dns.timeout", dto.Timeout, domain.DefaultDNSTimeout); err != nil {
		return cfg, err
	}

	for i, ns := range dto.Nameservers {
		addr, err := normalizeNameserver(ns)
		if err != nil {
			return cfg, invalid(fmt.Sprintf("dns.nameservers[%d]", i), err.Error(), ns)
		}
		cfg.Nameservers = append(cfg.Nameservers, addr)
	}

	return cfg, nil
}

func buildLog(dto LogDTO) (domain.LogConfig, error) {
	var cfg domain.LogConfig

	if dto.Level != "" {
		if err := cfg.Level.UnmarshalText([]byte(dto.Level)); err != nil {
			return cfg, invalid("log.level", "unknown level", dto.Level)
		}
	} else {
		cfg.Level = slog.LevelInfo
	}

	switch strings.ToLower(dto.Format) {
	case "", formatPretty:
	case formatJSON:
		cfg.JSON = true
	default:
		return cfg, invalid("log.format", "must be pretty or json", dto.Format)
	}

	return cfg, nil
}

// normalizeNameserver appends the default DNS port to bare hosts.
func normalizeNameserver(ns string) (string, error) {
	if ns == "" {
		return "", errors.New("empty address")
	}
	if _, _, err := net.SplitHostPort(ns); err == nil {
		return ns, nil
	}
	host := strings.TrimSuffix(strings.TrimPrefix(ns, "["), "]")
	if strings.ContainsAny(host, "[]") {
		return "", errors.New("malformed address")
	}
	return net.JoinHostPort(host, dnsPort), nil
}

// validateHostPort checks that value is host:port with a usable port.
// Listen addresses may use an empty host and port 0.
func validateHostPort(field, value string, listen bool) error {
	if value == "" {
		return invalid(field, "is required", value)
	}

	host, port, err := net.SplitHostPort(value)
	if err != nil {
		return invalid(field, "must be host:port", value)
	}

	n, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return invalid(field, "invalid port", value)
	}
	if !listen && (host == "" || n == 0) {
		return invalid(field, "needs a host and a non-zero port", value)
	}

	return nil
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, invalid(field, "invalid duration", value)
	}
	if d < 0 {
		return 0, invalid(field, "must not be negative", value)
	}
	return d, nil
}

func invalid(field, reason string, value any) error {
	err := zerr.With(zerr.New(field+" "+reason), "field", field)
	return errors.Join(domain.ErrConfigInvalid, zerr.With(err, "value", value))
}

func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is chosen by the operator
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Join(domain.ErrConfigReadFailed, err)
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return errors.Join(domain.ErrConfigParseFailed, parseErr)
	}

	return nil
}
