package reactor

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/ferry/internal/core/domain"
	"go.trai.ch/ferry/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

const (
	keepAlive   = 30 * time.Second
	dialTimeout = 10 * time.Second
)

// Handle implements ports.EngineHandle.
type Handle struct {
	listen net.ListenConfig
	dialer net.Dialer
	slots  *semaphore.Weighted
	logger ports.Logger

	active  atomic.Int64
	running sync.WaitGroup
}

var _ ports.EngineHandle = (*Handle)(nil)

func newHandle(cfg *domain.Config, logger ports.Logger) *Handle {
	h := &Handle{
		listen: net.ListenConfig{KeepAlive: keepAlive},
		dialer: net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive},
		logger: logger,
	}
	if cfg.ReusePort && reusePortSupported {
		h.listen.Control = reusePortControl
	}
	if cfg.Limits.MaxConnections > 0 {
		h.slots = semaphore.NewWeighted(int64(cfg.Limits.MaxConnections))
	}
	return h
}

// Listen opens a stream listener that is closed once ctx is done.
func (h *Handle) Listen(ctx context.Context, network, address string) (net.Listener, error) {
	ln, err := h.listen.Listen(ctx, network, address)
	if err != nil {
		return nil, err
	}
	context.AfterFunc(ctx, func() { _ = ln.Close() })
	return ln, nil
}

// ListenPacket opens a datagram socket that is closed once ctx is done.
func (h *Handle) ListenPacket(ctx context.Context, network, address string) (net.PacketConn, error) {
	pc, err := h.listen.ListenPacket(ctx, network, address)
	if err != nil {
		return nil, err
	}
	context.AfterFunc(ctx, func() { _ = pc.Close() })
	return pc, nil
}

// Dial connects to address. The connection is closed once ctx is done.
func (h *Handle) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	conn, err := h.dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	context.AfterFunc(ctx, func() { _ = conn.Close() })
	return conn, nil
}

// Acquire reserves a session slot, blocking while max_connections sessions are active.
func (h *Handle) Acquire(ctx context.Context) (func(), error) {
	if h.slots != nil {
		if err := h.slots.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	}
	h.active.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.active.Add(-1)
			if h.slots != nil {
				h.slots.Release(1)
			}
		})
	}, nil
}

// Go runs fn on a tracked goroutine. A panic in fn is logged, not propagated.
func (h *Handle) Go(fn func()) {
	h.running.Add(1)
	go func() {
		defer h.running.Done()
		defer zerr.Defer(func(err error) {
			h.logger.Error(errors.Join(domain.ErrTaskPanicked, err))
		})
		fn()
	}()
}

// Active returns the number of sessions currently holding a slot.
func (h *Handle) Active() int64 {
	return h.active.Load()
}
