// Package reactor implements the execution engine that drives relay tasks.
//
// Go's runtime netpoller plays the part of an event loop: every socket opened
// through a Handle is serviced by its own goroutine and all objects handed to
// tasks are safe for concurrent use. The engine adds what the runtime lacks:
// process resource limits, a session bound, socket options, and a run scope
// whose end closes every socket the run opened.
package reactor

import (
	"context"
	"errors"
	"time"

	"go.trai.ch/ferry/internal/core/domain"
	"go.trai.ch/ferry/internal/core/ports"
	"go.trai.ch/zerr"
)

// Engine implements ports.Engine.
type Engine struct {
	handle *Handle
	logger ports.Logger
}

var _ ports.Engine = (*Engine)(nil)

// Handle returns the handle shared by every task of the run.
func (e *Engine) Handle() ports.EngineHandle {
	return e.handle
}

// Run drives task to completion. The task's context is cancelled as soon as
// it returns, which closes every socket opened through the handle and
// abandons any goroutine still serving them. A panic in task is returned as
// domain.ErrTaskPanicked.
func (e *Engine) Run(ctx context.Context, task domain.Task) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	err := runTask(ctx, task)
	e.logger.Debug("engine stopped", "uptime", time.Since(start).Round(time.Millisecond), "active", e.handle.Active())

	return err
}

// runTask calls task, converting a panic into an error.
func runTask(ctx context.Context, task domain.Task) (err error) {
	defer zerr.Defer(func(perr error) {
		err = errors.Join(domain.ErrTaskPanicked, perr)
	})
	return task(ctx)
}
