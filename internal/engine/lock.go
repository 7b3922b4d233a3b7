package engine

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another projnorm process holds the project lock.
var ErrLocked = errors.New("another projnorm run holds the project lock")

// lock takes the advisory project lock. The returned func releases it.
func (e *Engine) lock() (func(), error) {
	if e.cfg.LockFile == "" {
		return func() {}, nil
	}

	fl := flock.New(e.cfg.LockFile)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring lock %s: %w", e.cfg.LockFile, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, e.cfg.LockFile)
	}
	e.logger.Debug("acquired project lock", "path", e.cfg.LockFile)

	return func() {
		if err := fl.Unlock(); err != nil {
			e.logger.Warn("releasing project lock", "path", e.cfg.LockFile, "error", err)
		}
	}, nil
}
