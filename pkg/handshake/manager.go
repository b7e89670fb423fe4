package handshake

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/halyard-rpc/halyard/pkg/chanargs"
	"github.com/halyard-rpc/halyard/pkg/endpoint"
	"github.com/halyard-rpc/halyard/pkg/eventengine"
	"github.com/halyard-rpc/halyard/pkg/hstrace"
	"github.com/halyard-rpc/halyard/pkg/metrics"
	"github.com/halyard-rpc/halyard/pkg/slicebuf"
)

// Manager owns an ordered chain of handshakers and drives one handshake
// through it. All state transitions are serialized on a single mutex; the
// deadline timer and per-handshaker completions may fire on arbitrary
// goroutines. Closures scheduled on the event engine capture the manager,
// which keeps it alive across every asynchronous hop.
//
// A Manager performs at most one handshake and must not be reused.
type Manager struct {
	mu      sync.Mutex
	logger  *slog.Logger
	metrics *metrics.Handshake

	handshakers []Handshaker
	index       int
	isShutdown  bool
	onDone      OnHandshakeDone
	deadline    eventengine.TimerHandle
	started     time.Time
	args        Args
}

// NewManager creates a Manager with the given configuration. A nil config
// is valid and uses the defaults.
func NewManager(cfg *Config) *Manager {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Manager{
		logger:  cfg.logger(),
		metrics: cfg.metrics,
	}
}

// Add appends a handshaker to the chain. It must not be called after
// DoHandshake has started.
func (m *Manager) Add(hs Handshaker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started.IsZero() {
		panic("handshake: Add called after DoHandshake")
	}
	m.logger.Debug("adding handshaker", "name", hs.Name(), "index", len(m.handshakers))
	m.handshakers = append(m.handshakers, hs)
}

// DoHandshake starts the chain. It moves ep into the shared Args, arms the
// deadline timer and invokes the first handshaker, then returns
// immediately. The terminal outcome is delivered to onDone exactly once, on
// the event engine, never inline.
//
// DoHandshake must be called at most once per Manager.
func (m *Manager) DoHandshake(ep endpoint.Endpoint, args *chanargs.Args, deadline time.Time, acceptor *Acceptor, onDone OnHandshakeDone) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started.IsZero() {
		panic("handshake: DoHandshake called twice on the same Manager")
	}
	m.onDone = onDone
	m.started = time.Now()
	m.args.Endpoint = ep
	m.args.Args = args
	m.args.ReadBuffer = slicebuf.New()
	m.args.Deadline = deadline
	m.args.Acceptor = acceptor
	m.args.EventEngine = eventengine.FromArgs(args)
	m.args.TraceNode = hstrace.NewNode(m.logger, fmt.Sprintf("handshake manager %p: ", m))
	if acceptor != nil && acceptor.ExternalConnection && acceptor.PendingData != nil {
		m.args.ReadBuffer.Swap(acceptor.PendingData)
	}
	m.metrics.Started()
	m.deadline = m.args.EventEngine.RunAfter(time.Until(deadline), func() {
		m.Shutdown(ErrDeadlineExceeded)
	})
	m.advanceLocked(nil)
}

// Shutdown requests cancellation of the handshake. It is idempotent and
// does not wait for the in-progress handshaker; the terminal callback fires
// through that handshaker's completion path. Shutdown never invokes onDone
// itself.
func (m *Manager) Shutdown(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.isShutdown {
		return
	}
	m.args.TraceNode.Log(fmt.Sprintf("Shutdown called: %v", err))
	m.args.TraceNode.Commit()
	m.isShutdown = true
	// Ask the handshaker that's currently in progress, if any, to cancel.
	if m.index > 0 {
		m.args.TraceNode.Log(fmt.Sprintf("Shutting down handshaker at index %d", m.index-1))
		m.handshakers[m.index-1].Shutdown(err)
	}
}

// advanceLocked moves the chain forward after the previous step completed
// with err, or starts it with a nil err. Caller must hold m.mu.
func (m *Manager) advanceLocked(err error) {
	m.logger.Debug("advancing handshake chain",
		"error", err, "shutdown", m.isShutdown, "index", m.index, "args", m.args.describe())
	if m.index > len(m.handshakers) {
		panic("handshake: chain cursor out of range")
	}
	// A handshaker error, a shutdown, an early exit or the end of the chain
	// is terminal.
	if err != nil || m.isShutdown || m.args.ExitEarly || m.index == len(m.handshakers) {
		if m.onDone == nil {
			// Terminal outcome already delivered; a late completion is a
			// no-op.
			return
		}
		if err == nil && m.isShutdown {
			err = ErrShutdown
			// Callers of a failed handshake never receive an endpoint.
			if m.args.Endpoint != nil {
				_ = m.args.Endpoint.Close()
				m.args.Endpoint = nil
			}
		}
		if err != nil {
			m.args.TraceNode.Log(fmt.Sprintf("Failed with error: %v", err))
			m.args.TraceNode.Commit()
		}
		m.args.EventEngine.Cancel(m.deadline)
		m.isShutdown = true
		m.metrics.Finished(time.Since(m.started), err)
		onDone := m.onDone
		m.onDone = nil
		resArgs := &m.args
		resErr := err
		// Deliver the terminal callback on the event engine, never inline
		// and never under the mutex.
		m.args.EventEngine.Run(func() {
			if resErr != nil {
				onDone(nil, resErr)
				return
			}
			onDone(resArgs, nil)
		})
		return
	}
	hs := m.handshakers[m.index]
	m.args.TraceNode.Log(fmt.Sprintf("calling handshaker %s at index %d", hs.Name(), m.index))
	m.logger.Debug("calling handshaker", "name", hs.Name(), "index", m.index)
	m.index++
	hs.DoHandshake(&m.args, func(err error) {
		// The continuation may be invoked inline while the mutex is still
		// held by the dispatching goroutine, so re-entry always goes
		// through the event engine.
		m.args.EventEngine.Run(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.advanceLocked(err)
		})
	})
}
