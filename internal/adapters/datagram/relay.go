// Package datagram implements the UDP relay. Each client address gets an
// association: a connected upstream socket whose replies are sent back to
// that client.
package datagram

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/ferry/internal/core/domain"
	"go.trai.ch/ferry/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// maxDatagram is the largest UDP payload.
const maxDatagram = 64 << 10

var errSocketClosed = zerr.New("datagram socket closed unexpectedly")

// Relay implements ports.Relay for datagram sockets.
type Relay struct {
	logger ports.Logger
	tracer ports.Tracer
}

var _ ports.Relay = (*Relay)(nil)

// New creates a datagram Relay.
func New(logger ports.Logger, tracer ports.Tracer) *Relay {
	return &Relay{logger: logger, tracer: tracer}
}

// Task returns a task serving every configured server until ctx is done.
// A bind failure ends the task with domain.ErrListenFailed.
func (r *Relay) Task(cfg *domain.Config, engine ports.EngineHandle, resolver ports.Resolver) domain.Task {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		servers := make([]*server, 0, len(cfg.Servers))
		for _, sc := range cfg.Servers {
			srv, err := r.newServer(cfg, sc, engine, resolver)
			if err != nil {
				return err
			}
			servers = append(servers, srv)
		}

		g, ctx := errgroup.WithContext(ctx)
		for _, srv := range servers {
			pc, err := engine.ListenPacket(ctx, "udp", srv.cfg.Listen)
			if err != nil {
				return zerr.With(errors.Join(domain.ErrListenFailed, err), "listen", srv.cfg.Listen)
			}
			r.logger.Info("datagram relay listening",
				"server", srv.cfg.DisplayName(), "listen", pc.LocalAddr().String(), "target", srv.cfg.Target)

			g.Go(func() error { return srv.serve(ctx, pc) })
		}

		return g.Wait()
	}
}

func (r *Relay) newServer(
	cfg *domain.Config,
	sc domain.ServerConfig,
	engine ports.EngineHandle,
	resolver ports.Resolver,
) (*server, error) {
	host, port, err := sc.SplitTarget()
	if err != nil {
		return nil, err
	}
	return &server{
		Relay:    r,
		cfg:      sc,
		host:     host,
		port:     port,
		idle:     cfg.UDPIdleTimeout(),
		engine:   engine,
		resolver: resolver,
		assocs:   newTable(cfg.UDPMaxAssociations()),
	}, nil
}

type server struct {
	*Relay
	cfg      domain.ServerConfig
	host     string
	port     uint16
	idle     time.Duration
	engine   ports.EngineHandle
	resolver ports.Resolver
	assocs   *table
}

// serve reads client datagrams until the socket is closed and forwards each
// one through its client's association.
func (s *server) serve(ctx context.Context, pc net.PacketConn) error {
	defer s.assocs.purge()

	buf := make([]byte, maxDatagram)
	for {
		n, addr, err := pc.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return zerr.With(errSocketClosed, "listen", s.cfg.Listen)
			}
			s.logger.Warn("datagram read failed", "server", s.cfg.DisplayName(), "error", err.Error())
			continue
		}

		s.forward(ctx, pc, addr, buf[:n])
	}
}

// forward sends p upstream through the association of client, creating it
// on first use. An association whose socket closed after lookup, such as
// one that just expired, is replaced and the send retried once.
func (s *server) forward(ctx context.Context, pc net.PacketConn, client net.Addr, p []byte) {
	key := client.String()
	assoc, ok := s.assocs.get(key)
	if ok {
		err := assoc.send(p)
		if err == nil {
			return
		}
		if !errors.Is(err, net.ErrClosed) {
			s.logger.Debug("upstream write failed",
				"server", s.cfg.DisplayName(), "client", key, "error", err.Error())
			return
		}
		s.assocs.remove(key, assoc)
	}

	assoc, err := s.associate(ctx, pc, client)
	if err != nil {
		s.logger.Warn("dropping datagram",
			"server", s.cfg.DisplayName(), "client", key, "error", err.Error())
		return
	}
	if err := assoc.send(p); err != nil {
		s.logger.Debug("upstream write failed",
			"server", s.cfg.DisplayName(), "client", key, "error", err.Error())
	}
}

// associate opens an upstream socket for client and starts relaying its replies.
func (s *server) associate(ctx context.Context, pc net.PacketConn, client net.Addr) (*association, error) {
	actx, cancel := context.WithCancel(ctx)

	upstream, err := s.dial(actx)
	if err != nil {
		cancel()
		return nil, err
	}

	actx, span := s.tracer.Start(actx, "datagram.association",
		ports.WithAttribute("server", s.cfg.DisplayName()),
		ports.WithAttribute("client", client.String()),
		ports.WithAttribute("upstream", upstream.RemoteAddr().String()),
	)

	a := &association{
		client:   client,
		upstream: upstream,
		cancel:   cancel,
		span:     span,
	}
	a.touch()

	key := client.String()
	if s.assocs.add(key, a) {
		s.logger.Debug("association table full, evicted least recently used",
			"server", s.cfg.DisplayName())
	}

	s.engine.Go(func() {
		defer s.assocs.remove(key, a)
		a.replies(actx, pc, s.idle)
	})

	return a, nil
}

func (s *server) dial(ctx context.Context) (net.Conn, error) {
	addrs, err := s.resolver.Resolve(ctx, s.host)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, addr := range addrs {
		conn, err := s.engine.Dial(ctx, "udp", netip.AddrPortFrom(addr, s.port).String())
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}

	return nil, zerr.With(errors.Join(domain.ErrDialFailed, lastErr), "target", s.cfg.Target)
}

// association is the relay state of one client.
type association struct {
	client   net.Addr
	upstream net.Conn
	cancel   context.CancelFunc
	span     ports.Span

	last    atomic.Int64
	up      atomic.Int64
	down    atomic.Int64
	closing sync.Once
}

func (a *association) touch() {
	a.last.Store(time.Now().UnixNano())
}

func (a *association) send(p []byte) error {
	a.touch()
	if _, err := a.upstream.Write(p); err != nil {
		return err
	}
	a.up.Add(1)
	return nil
}

// replies copies upstream datagrams back to the client until the
// association has been idle for idle or is closed.
func (a *association) replies(ctx context.Context, pc net.PacketConn, idle time.Duration) {
	defer a.close()

	buf := make([]byte, maxDatagram)
	for {
		_ = a.upstream.SetReadDeadline(time.Now().Add(idle))
		n, err := a.upstream.Read(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) && time.Since(time.Unix(0, a.last.Load())) < idle {
				continue
			}
			if ctx.Err() == nil && !errors.Is(err, os.ErrDeadlineExceeded) && !errors.Is(err, net.ErrClosed) {
				a.span.RecordError(err)
			}
			return
		}

		a.touch()
		if _, err := pc.WriteTo(buf[:n], a.client); err != nil {
			if ctx.Err() == nil {
				a.span.RecordError(err)
			}
			return
		}
		a.down.Add(1)
	}
}

// close releases the upstream socket and ends the association's span. It is idempotent.
func (a *association) close() {
	a.closing.Do(func() {
		a.cancel()
		_ = a.upstream.Close()
		a.span.SetAttribute("packets_up", a.up.Load())
		a.span.SetAttribute("packets_down", a.down.Load())
		a.span.End()
	})
}
