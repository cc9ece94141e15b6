// Package app implements the application layer for ferry: it builds the
// resources shared by one run and composes the relays on top of them.
package app

import (
	"context"
	"log/slog"

	"go.trai.ch/ferry/internal/core/domain"
	"go.trai.ch/ferry/internal/core/ports"
	"go.trai.ch/ferry/internal/engine/reactor"
)

// Shape is the set of relays a run drives.
type Shape int

const (
	// StreamOnly runs the stream relay alone.
	StreamOnly Shape = iota
	// StreamAndDatagram runs the stream and datagram relays side by side.
	StreamAndDatagram
)

// ShapeOf returns the shape selected by cfg.
func ShapeOf(cfg *domain.Config) Shape {
	if cfg.EnableUDP {
		return StreamAndDatagram
	}
	return StreamOnly
}

func (s Shape) String() string {
	switch s {
	case StreamOnly:
		return "stream"
	case StreamAndDatagram:
		return "stream+datagram"
	default:
		return "unknown"
	}
}

// App represents the main application logic.
type App struct {
	engines   ports.EngineFactory
	resolvers ports.ResolverFactory
	stream    ports.Relay
	datagram  ports.Relay
	logger    ports.Logger
}

// New creates a new App instance.
func New(
	engines ports.EngineFactory,
	resolvers ports.ResolverFactory,
	stream ports.Relay,
	datagram ports.Relay,
	logger ports.Logger,
) *App {
	return &App{
		engines:   engines,
		resolvers: resolvers,
		stream:    stream,
		datagram:  datagram,
		logger:    logger,
	}
}

// shared holds everything the relays of one run have in common.
type shared struct {
	engine   ports.Engine
	handle   ports.EngineHandle
	cfg      *domain.Config
	resolver ports.Resolver
}

// logConfigurer is implemented by loggers whose level and format can change at runtime.
type logConfigurer interface {
	SetLevel(level slog.Level)
	SetJSON(enable bool)
}

// Run serves cfg until ctx is cancelled or a relay fails. It returns nil
// after a clean shutdown, otherwise the first error any relay reported.
func (a *App) Run(ctx context.Context, cfg domain.Config) error {
	if lc, ok := a.logger.(logConfigurer); ok {
		lc.SetLevel(cfg.Log.Level)
		lc.SetJSON(cfg.Log.JSON)
	}

	sh, err := a.buildShared(&cfg)
	if err != nil {
		return err
	}

	shape := ShapeOf(sh.cfg)
	a.logger.Info("starting relays", "shape", shape.String(), "servers", len(sh.cfg.Servers))

	return sh.engine.Run(ctx, a.compose(sh, shape))
}

// buildShared creates the engine and the resolver cache. Only engine
// creation can fail, in which case nothing else is built.
func (a *App) buildShared(cfg *domain.Config) (*shared, error) {
	engine, err := a.engines.NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	return &shared{
		engine:   engine,
		handle:   engine.Handle(),
		cfg:      cfg,
		resolver: a.resolvers.NewResolver(cfg.DNSCacheCapacity, cfg.DNS),
	}, nil
}

// compose builds the task of shape. Relays share the config pointer and the
// resolver instance.
func (a *App) compose(sh *shared, shape Shape) domain.Task {
	stream := a.stream.Task(sh.cfg, sh.handle, sh.resolver)
	if shape == StreamOnly {
		return stream
	}

	datagram := a.datagram.Task(sh.cfg, sh.handle, sh.resolver)
	return reactor.Join(stream, datagram)
}
