package dnscache

import (
	"context"
	"time"

	"github.com/miekg/dns"
)

var UpstreamFor = upstreamFor

// ExchangeFunc adapts a function to the exchanger used by NameserverUpstream.
type ExchangeFunc func(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error)

func (f ExchangeFunc) ExchangeContext(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error) {
	return f(ctx, m, address)
}

func NewNameserverUpstreamWith(servers []string, udp, tcp ExchangeFunc) *NameserverUpstream {
	return &NameserverUpstream{servers: servers, udp: udp, tcp: tcp}
}
