package stream

import (
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const bufferSize = 32 << 10

var bufferPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

type closeWriter interface {
	CloseWrite() error
}

type pipeStats struct {
	up   int64
	down int64
	idle bool
}

// pipe copies client to upstream and back until both directions finish.
// A direction reaching EOF half-closes its destination. The session ends
// early when neither direction has moved data for idle, or when either
// direction fails, in which case both connections are closed.
func pipe(client, upstream net.Conn, idle time.Duration) (pipeStats, error) {
	var stats pipeStats
	var last atomic.Int64
	last.Store(time.Now().UnixNano())

	var idled atomic.Bool
	abort := func() {
		_ = client.Close()
		_ = upstream.Close()
	}

	run := func(dst, src net.Conn, n *int64) func() error {
		return func() error {
			written, err := copyIdle(dst, src, idle, &last)
			*n = written
			switch {
			case err == nil:
				if cw, ok := dst.(closeWriter); ok {
					_ = cw.CloseWrite()
				} else {
					_ = dst.Close()
				}
				return nil
			case errors.Is(err, os.ErrDeadlineExceeded):
				idled.Store(true)
				abort()
				return nil
			default:
				abort()
				return err
			}
		}
	}

	var g errgroup.Group
	g.Go(run(upstream, client, &stats.up))
	g.Go(run(client, upstream, &stats.down))
	err := g.Wait()

	stats.idle = idled.Load()
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		err = nil
	}
	return stats, err
}

// copyIdle copies src to dst. A read deadline is extended while the other
// direction keeps the shared last-activity time fresh.
func copyIdle(dst, src net.Conn, idle time.Duration, last *atomic.Int64) (int64, error) {
	bp := bufferPool.Get().(*[]byte)
	defer bufferPool.Put(bp)
	buf := *bp

	var written int64
	for {
		_ = src.SetReadDeadline(time.Now().Add(idle))
		nr, rerr := src.Read(buf)
		if nr > 0 {
			last.Store(time.Now().UnixNano())
			_ = dst.SetWriteDeadline(time.Now().Add(idle))
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, werr
			}
		}
		if rerr == nil {
			continue
		}
		if errors.Is(rerr, io.EOF) {
			return written, nil
		}
		if errors.Is(rerr, os.ErrDeadlineExceeded) && time.Since(time.Unix(0, last.Load())) < idle {
			continue
		}
		return written, rerr
	}
}
