// Package stream implements the TCP relay: every accepted connection is
// forwarded to its server's target, resolved through the shared cache.
package stream

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"time"

	"go.trai.ch/ferry/internal/core/domain"
	"go.trai.ch/ferry/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

var errListenerClosed = zerr.New("listener closed unexpectedly")

// Relay implements ports.Relay for stream sockets.
type Relay struct {
	logger ports.Logger
	tracer ports.Tracer
}

var _ ports.Relay = (*Relay)(nil)

// New creates a stream Relay.
func New(logger ports.Logger, tracer ports.Tracer) *Relay {
	return &Relay{logger: logger, tracer: tracer}
}

// Task returns a task serving every configured server until ctx is done.
// Listening sockets are bound when the task starts; a bind failure ends the
// task with domain.ErrListenFailed.
func (r *Relay) Task(cfg *domain.Config, engine ports.EngineHandle, resolver ports.Resolver) domain.Task {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		servers := make([]*server, 0, len(cfg.Servers))
		for _, sc := range cfg.Servers {
			srv, err := newServer(r, cfg, sc, engine, resolver)
			if err != nil {
				return err
			}
			servers = append(servers, srv)
		}

		g, ctx := errgroup.WithContext(ctx)
		for _, srv := range servers {
			ln, err := engine.Listen(ctx, "tcp", srv.cfg.Listen)
			if err != nil {
				return zerr.With(errors.Join(domain.ErrListenFailed, err), "listen", srv.cfg.Listen)
			}
			r.logger.Info("stream relay listening",
				"server", srv.cfg.DisplayName(), "listen", ln.Addr().String(), "target", srv.cfg.Target)

			g.Go(func() error { return srv.serve(ctx, ln) })
		}

		return g.Wait()
	}
}

// server relays the sessions of one endpoint.
type server struct {
	*Relay
	cfg      domain.ServerConfig
	host     string
	port     uint16
	idle     time.Duration
	engine   ports.EngineHandle
	resolver ports.Resolver
}

func newServer(
	r *Relay,
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
		idle:     sc.IdleTimeout(cfg.Timeout),
		engine:   engine,
		resolver: resolver,
	}, nil
}

// serve accepts connections until the listener is closed. Closing caused by
// ctx ending is a clean stop.
func (s *server) serve(ctx context.Context, ln net.Listener) error {
	var delay time.Duration

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return zerr.With(errListenerClosed, "listen", s.cfg.Listen)
			}

			delay = nextDelay(delay)
			s.logger.Warn("accept failed, retrying",
				"server", s.cfg.DisplayName(), "delay", delay, "error", err.Error())

			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return nil
			}
		}

		delay = 0
		s.engine.Go(func() { s.handle(ctx, conn) })
	}
}

// handle relays one accepted connection until either side finishes or the
// session goes idle.
func (s *server) handle(ctx context.Context, client net.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer client.Close()
	context.AfterFunc(ctx, func() { _ = client.Close() })

	release, err := s.engine.Acquire(ctx)
	if err != nil {
		return
	}
	defer release()

	ctx, span := s.tracer.Start(ctx, "stream.session",
		ports.WithAttribute("server", s.cfg.DisplayName()),
		ports.WithAttribute("client", client.RemoteAddr().String()),
		ports.WithAttribute("target", s.cfg.Target),
	)
	defer span.End()

	upstream, err := s.dial(ctx)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("stream session failed",
			"server", s.cfg.DisplayName(), "client", client.RemoteAddr().String(), "error", err.Error())
		return
	}
	defer upstream.Close()
	span.SetAttribute("upstream", upstream.RemoteAddr().String())

	stats, err := pipe(client, upstream, s.idle)
	span.SetAttribute("bytes_up", stats.up)
	span.SetAttribute("bytes_down", stats.down)
	span.SetAttribute("idle_timeout", stats.idle)
	if err != nil && ctx.Err() == nil {
		span.RecordError(err)
	}
}

// dial resolves the target and connects to the first address that accepts.
func (s *server) dial(ctx context.Context) (net.Conn, error) {
	addrs, err := s.resolver.Resolve(ctx, s.host)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, addr := range addrs {
		conn, err := s.engine.Dial(ctx, "tcp", netip.AddrPortFrom(addr, s.port).String())
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	return nil, zerr.With(errors.Join(domain.ErrDialFailed, lastErr), "target", s.cfg.Target)
}

func nextDelay(delay time.Duration) time.Duration {
	if delay == 0 {
		return minAcceptDelay
	}
	return min(2*delay, maxAcceptDelay)
}
