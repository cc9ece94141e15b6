package stream

import (
	"net"
	"time"
)

func Pipe(client, upstream net.Conn, idle time.Duration) (up, down int64, idled bool, err error) {
	stats, err := pipe(client, upstream, idle)
	return stats.up, stats.down, stats.idle, err
}

var NextDelay = nextDelay
