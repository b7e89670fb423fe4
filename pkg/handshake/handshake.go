// Package handshake implements a chained, deadline-bounded, cancellable
// pipeline that drives a freshly established byte endpoint through an
// ordered sequence of pluggable handshakers until the endpoint is ready to
// host application framing, or fails.
//
// A caller registers handshakers on a Manager in the desired order and
// starts the chain with DoHandshake. Each handshaker asynchronously
// transforms the shared Args value and reports completion; the manager
// advances to the next handshaker, enforces the deadline, serializes
// shutdown races and delivers exactly one terminal notification.
package handshake

import (
	"fmt"
	"time"

	"github.com/halyard-rpc/halyard/pkg/chanargs"
	"github.com/halyard-rpc/halyard/pkg/endpoint"
	"github.com/halyard-rpc/halyard/pkg/eventengine"
	"github.com/halyard-rpc/halyard/pkg/hstrace"
	"github.com/halyard-rpc/halyard/pkg/slicebuf"
)

// Namespace is the logging namespace of the package.
const Namespace = "HS"

// DoneFunc is the one-shot continuation a handshaker invokes when its step
// completes. It may be invoked inline from DoHandshake or from any other
// goroutine.
type DoneFunc func(err error)

// OnHandshakeDone is the terminal callback of a handshake. On success args
// is non-nil and ownership of args.Endpoint transfers to the callback; on
// failure args is nil and err describes the first terminal condition.
type OnHandshakeDone func(args *Args, err error)

// Handshaker is a single transformation step on the endpoint-plus-context
// tuple. Implementations are not required to be thread-safe against
// themselves; the manager never runs DoHandshake and Shutdown concurrently
// on the same instance, but Shutdown may race the internal completion path
// of DoHandshake.
type Handshaker interface {
	// Name returns a static identifier used for logging and tracing.
	Name() string

	// DoHandshake consumes or augments args asynchronously and then calls
	// done exactly once. DoHandshake must not block; it schedules I/O and
	// returns.
	DoHandshake(args *Args, done DoneFunc)

	// Shutdown requests cancellation of an in-flight step. It is
	// idempotent and must cause done to fire with a non-nil error in
	// bounded time if it has not fired already. Shutdown after done is a
	// no-op.
	Shutdown(err error)
}

// Acceptor carries the server-side accept context of an incoming
// connection. It is nil on the client side.
type Acceptor struct {
	// ExternalConnection marks connections handed in from outside the
	// listener loop.
	ExternalConnection bool

	// PendingData holds bytes already read from the connection before the
	// handshake started. The manager steals them into Args.ReadBuffer.
	PendingData *slicebuf.Buffer
}

// Args is the mutable hand-off value flowing through the chain. It is
// mutated only by the currently active handshaker and read by the manager
// between steps.
type Args struct {
	// Endpoint is the exclusively-owned byte endpoint. A handshaker may
	// replace it, e.g. wrapping it into a TLS endpoint. When the chain is
	// shut down while the last step succeeded, the manager closes it and
	// sets it to nil; after a handshaker error the manager leaves it as is.
	Endpoint endpoint.Endpoint

	// Args is the channel configuration snapshot. Handshakers may store
	// back a new snapshot with additional keys.
	Args *chanargs.Args

	// ReadBuffer holds pre-read bytes. A handshaker may consume from or
	// append to it; the next handshaker inherits whatever remains.
	ReadBuffer *slicebuf.Buffer

	// Deadline is the absolute timestamp the whole chain must finish by.
	Deadline time.Time

	// Acceptor is the borrowed server-side accept context, or nil.
	Acceptor *Acceptor

	// EventEngine is the borrowed executor and timer service.
	EventEngine eventengine.EventEngine

	// ExitEarly requests an orderly short-circuit of the chain without an
	// error once the current handshaker completes.
	ExitEarly bool

	// TraceNode collects per-handshake diagnostics. It is committed on
	// failure and dropped otherwise.
	TraceNode *hstrace.Node
}

func (a *Args) describe() string {
	return fmt.Sprintf("{endpoint=%t, args=%s, read_buffer_len=%d, exit_early=%t}",
		a.Endpoint != nil, a.Args.Format(), a.ReadBuffer.Len(), a.ExitEarly)
}

// InvokeDone delivers a handshaker's completion on the event engine rather
// than the calling stack. Handshakers use it to avoid invoking their
// continuation while holding their own locks.
func InvokeDone(args *Args, done DoneFunc, err error) {
	args.EventEngine.Run(func() {
		done(err)
	})
}
