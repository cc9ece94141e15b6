//go:build !linux && !darwin

package reactor

import "errors"

func raiseNoFile(uint64) (uint64, error) {
	return 0, errors.ErrUnsupported
}
