package dnscache

import (
	"go.trai.ch/ferry/internal/core/domain"
	"go.trai.ch/ferry/internal/core/ports"
)

// Factory implements ports.ResolverFactory.
type Factory struct {
	Logger ports.Logger
}

// NewFactory creates a new Factory.
func NewFactory(logger ports.Logger) *Factory {
	return &Factory{Logger: logger}
}

// NewResolver creates a Cache bounded by capacity over the upstream selected by dns.
func (f *Factory) NewResolver(capacity int, dns domain.DNSConfig) ports.Resolver {
	upstream := "system"
	if len(dns.Nameservers) > 0 {
		upstream = "nameservers"
	}
	f.Logger.Debug("resolver cache created", "capacity", capacity, "upstream", upstream)

	return New(capacity, upstreamFor(dns))
}
