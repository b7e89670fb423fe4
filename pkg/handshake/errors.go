package handshake

import (
	"github.com/pkg/errors"
)

var (
	// ErrShutdown is delivered when the chain is shut down while the last
	// completed step was successful. A handshaker error that races the
	// shutdown wins over it.
	ErrShutdown = errors.New("handshaker shutdown")

	// ErrDeadlineExceeded is the error the deadline timer shuts the chain
	// down with.
	ErrDeadlineExceeded = errors.New("Handshake timed out")
)
