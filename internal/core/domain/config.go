// Package domain contains the core types shared by the relay engine, the
// relays and the application layer.
package domain

import (
	"errors"
	"log/slog"
	"net"
	"strconv"
	"time"

	"go.trai.ch/zerr"
)

const (
	// DefaultConfigFile is the config file looked up when none is given.
	DefaultConfigFile = "ferry.yaml"

	// DefaultTimeout is the idle timeout applied to relayed sessions.
	DefaultTimeout = 5 * time.Minute

	// DefaultUDPTimeout is the idle timeout of a datagram association.
	DefaultUDPTimeout = time.Minute

	// DefaultMaxAssociations bounds the datagram association table.
	DefaultMaxAssociations = 1024

	// DefaultDNSTTL is the cache lifetime of answers from the system resolver.
	DefaultDNSTTL = 5 * time.Minute

	// DefaultDNSTimeout bounds a single upstream DNS exchange.
	DefaultDNSTimeout = 5 * time.Second

	// DefaultDNSCacheCapacity is the resolver cache bound used when the config omits it.
	DefaultDNSCacheCapacity = 256
)

// Config is the immutable configuration snapshot of a relay run.
//
// A *Config is shared by every relay task of a run and must not be mutated
// once Run has been called.
type Config struct {
	Servers []ServerConfig

	// EnableUDP gates construction of the datagram relay.
	EnableUDP bool

	// DNSCacheCapacity bounds the number of cached hostnames. Zero disables caching.
	DNSCacheCapacity int

	DNS DNSConfig
	UDP UDPConfig

	// Timeout is the default idle timeout for relayed sessions.
	Timeout time.Duration

	Limits LimitsConfig

	// ReusePort sets SO_REUSEPORT on listening sockets where supported.
	ReusePort bool

	Log LogConfig
}

// ServerConfig describes one relay endpoint.
type ServerConfig struct {
	Name   string
	Listen string
	// Target is the host:port every session of this endpoint is forwarded to.
	// The host part may be a hostname; it is resolved per session through the
	// shared resolver.
	Target  string
	Timeout time.Duration
}

// DNSConfig configures the upstream used by the resolution cache.
type DNSConfig struct {
	// Nameservers are queried in order. Empty means the system resolver.
	Nameservers []string
	TTL         time.Duration
	Timeout     time.Duration
}

// UDPConfig configures the datagram relay.
type UDPConfig struct {
	MaxAssociations int
	Timeout         time.Duration
}

// LimitsConfig configures process-level resources claimed by the engine.
type LimitsConfig struct {
	// NoFile is the requested RLIMIT_NOFILE soft limit. Zero leaves it untouched.
	NoFile uint64
	// MaxConnections caps concurrently relayed sessions. Zero is unlimited.
	MaxConnections int
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level slog.Level
	JSON  bool
}

// SplitTarget splits the server target into host and numeric port.
func (s ServerConfig) SplitTarget() (host string, port uint16, err error) {
	host, portStr, err := net.SplitHostPort(s.Target)
	if err != nil {
		return "", 0, zerr.With(errors.Join(ErrConfigInvalid, err), "target", s.Target)
	}
	n, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, zerr.With(errors.Join(ErrConfigInvalid, err), "target", s.Target)
	}
	return host, uint16(n), nil
}

// IdleTimeout returns the server timeout, falling back to the global one.
func (s ServerConfig) IdleTimeout(global time.Duration) time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	if global > 0 {
		return global
	}
	return DefaultTimeout
}

// DisplayName returns the configured name or the listen address.
func (s ServerConfig) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Listen
}

// UDPIdleTimeout returns the association idle timeout with its default applied.
func (c *Config) UDPIdleTimeout() time.Duration {
	if c.UDP.Timeout > 0 {
		return c.UDP.Timeout
	}
	return DefaultUDPTimeout
}

// UDPMaxAssociations returns the association table bound with its default applied.
func (c *Config) UDPMaxAssociations() int {
	if c.UDP.MaxAssociations > 0 {
		return c.UDP.MaxAssociations
	}
	return DefaultMaxAssociations
}
