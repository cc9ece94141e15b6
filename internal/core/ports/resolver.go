package ports

import (
	"context"
	"net/netip"

	"go.trai.ch/ferry/internal/core/domain"
)

//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks

// Resolver resolves hostnames through a bounded cache shared by all relays.
type Resolver interface {
	// Resolve returns the addresses of host. IP literals are returned as is.
	Resolve(ctx context.Context, host string) ([]netip.Addr, error)
}

// ResolverFactory creates the resolution cache of a run.
type ResolverFactory interface {
	// NewResolver creates a resolver caching at most capacity hostnames.
	// An empty dns.Nameservers selects the system resolver.
	NewResolver(capacity int, dns domain.DNSConfig) Resolver
}
