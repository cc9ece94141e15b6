package ports

import (
	"context"
	"net"

	"go.trai.ch/ferry/internal/core/domain"
)

//go:generate mockgen -source=engine.go -destination=mocks/mock_engine.go -package=mocks

// EngineHandle is the view of the execution engine handed to relay tasks.
// It is shared by every task of a run and safe for concurrent use.
type EngineHandle interface {
	// Listen opens a stream listener.
	Listen(ctx context.Context, network, address string) (net.Listener, error)
	// ListenPacket opens a datagram socket.
	ListenPacket(ctx context.Context, network, address string) (net.PacketConn, error)
	// Dial connects to address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)
	// Acquire reserves a session slot. The returned release func must be called exactly once.
	Acquire(ctx context.Context) (release func(), err error)
	// Go runs fn on its own goroutine, tracked by the engine.
	Go(fn func())
}

// Engine drives a task to completion.
type Engine interface {
	// Handle returns the handle relay tasks use to perform I/O.
	Handle() EngineHandle
	// Run drives task until it returns and abandons any work it left running.
	Run(ctx context.Context, task domain.Task) error
}

// EngineFactory creates the execution engine of a run.
type EngineFactory interface {
	// NewEngine creates an engine sized by cfg. Failures wrap domain.ErrEngineInit.
	NewEngine(cfg *domain.Config) (Engine, error)
}
