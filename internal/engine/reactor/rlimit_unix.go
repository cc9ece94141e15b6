//go:build linux || darwin

package reactor

import (
	"go.trai.ch/zerr"
	"golang.org/x/sys/unix"
)

var errNoFileAboveHard = zerr.New("requested open file limit exceeds the hard limit")

// raiseNoFile raises the soft RLIMIT_NOFILE to want and returns the resulting soft limit.
// A soft limit already at or above want is left untouched.
func raiseNoFile(want uint64) (uint64, error) {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &lim); err != nil {
		return 0, err
	}
	if lim.Cur >= want {
		return lim.Cur, nil
	}
	if want > lim.Max {
		return 0, zerr.With(errNoFileAboveHard, "hard", lim.Max)
	}

	lim.Cur = want
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &lim); err != nil {
		return 0, err
	}
	return want, nil
}
