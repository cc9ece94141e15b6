package dnscache

import (
	"context"
	"errors"
	"math"
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"
	"go.trai.ch/ferry/internal/core/domain"
	"go.trai.ch/zerr"
)

var (
	errNameNotFound  = zerr.New("name does not exist")
	errServerFailure = zerr.New("nameserver returned an error")
	errNoNameservers = zerr.New("no nameservers configured")
)

// SystemUpstream resolves through the operating system resolver.
// The system resolver exposes no TTLs, so every answer is cached for a fixed duration.
type SystemUpstream struct {
	Resolver *net.Resolver
	TTL      time.Duration
	Timeout  time.Duration
}

// NewSystemUpstream creates a SystemUpstream with the given cache lifetime and timeout.
func NewSystemUpstream(ttl, timeout time.Duration) *SystemUpstream {
	return &SystemUpstream{Resolver: net.DefaultResolver, TTL: ttl, Timeout: timeout}
}

// Lookup implements Upstream.
func (u *SystemUpstream) Lookup(ctx context.Context, host string) ([]netip.Addr, time.Duration, error) {
	if u.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.Timeout)
		defer cancel()
	}

	addrs, err := u.Resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, 0, err
	}
	for i := range addrs {
		addrs[i] = addrs[i].Unmap()
	}
	return addrs, u.TTL, nil
}

// exchanger is the subset of dns.Client used by NameserverUpstream.
type exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error)
}

// NameserverUpstream queries the configured nameservers directly.
// Servers are tried in order; a negative answer from one server is final.
// IPv4 addresses are returned before IPv6 ones.
type NameserverUpstream struct {
	servers []string
	udp     exchanger
	tcp     exchanger
}

// NewNameserverUpstream creates an upstream querying servers (host:port) with the given per-exchange timeout.
func NewNameserverUpstream(servers []string, timeout time.Duration) *NameserverUpstream {
	return &NameserverUpstream{
		servers: servers,
		udp:     &dns.Client{Net: "udp", Timeout: timeout},
		tcp:     &dns.Client{Net: "tcp", Timeout: timeout},
	}
}

// Lookup implements Upstream.
func (u *NameserverUpstream) Lookup(ctx context.Context, host string) ([]netip.Addr, time.Duration, error) {
	lastErr := errNoNameservers

	for _, server := range u.servers {
		addrs, ttl, err := u.query(ctx, server, host)
		if err == nil {
			return addrs, ttl, nil
		}
		if errors.Is(err, errNameNotFound) || ctx.Err() != nil {
			return nil, 0, err
		}
		lastErr = zerr.With(err, "nameserver", server)
	}

	return nil, 0, lastErr
}

func (u *NameserverUpstream) query(ctx context.Context, server, host string) ([]netip.Addr, time.Duration, error) {
	var addrs []netip.Addr
	ttl := uint32(math.MaxUint32)

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		resp, err := u.exchange(ctx, server, host, qtype)
		if err != nil {
			return nil, 0, err
		}

		for _, rr := range resp.Answer {
			var addr netip.Addr
			var ok bool
			switch v := rr.(type) {
			case *dns.A:
				addr, ok = netip.AddrFromSlice(v.A.To4())
			case *dns.AAAA:
				addr, ok = netip.AddrFromSlice(v.AAAA)
			}
			if !ok {
				continue
			}
			addrs = append(addrs, addr.Unmap())
			ttl = min(ttl, rr.Header().Ttl)
		}
	}

	if len(addrs) == 0 {
		return nil, 0, nil
	}
	return addrs, time.Duration(ttl) * time.Second, nil
}

func (u *NameserverUpstream) exchange(ctx context.Context, server, host string, qtype uint16) (*dns.Msg, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)

	resp, _, err := u.udp.ExchangeContext(ctx, msg, server)
	if err == nil && resp.Truncated {
		resp, _, err = u.tcp.ExchangeContext(ctx, msg, server)
	}
	if err != nil {
		return nil, err
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
		return resp, nil
	case dns.RcodeNameError:
		return nil, errNameNotFound
	default:
		return nil, zerr.With(errServerFailure, "rcode", dns.RcodeToString[resp.Rcode])
	}
}

// upstreamFor selects the upstream described by cfg.
func upstreamFor(cfg domain.DNSConfig) Upstream {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = domain.DefaultDNSTTL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = domain.DefaultDNSTimeout
	}

	if len(cfg.Nameservers) == 0 {
		return NewSystemUpstream(ttl, timeout)
	}
	return NewNameserverUpstream(cfg.Nameservers, timeout)
}
