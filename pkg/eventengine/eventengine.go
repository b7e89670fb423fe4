// Package eventengine provides the executor and timer service used by the
// handshake pipeline. Tasks are always executed asynchronously with respect
// to the caller, so posting a task is safe while holding locks.
package eventengine

import (
	"sync"
	"time"

	"github.com/halyard-rpc/halyard/pkg/chanargs"
)

// ArgsKey is the chanargs key under which an EventEngine travels.
const ArgsKey = "eventengine.instance"

// TimerHandle identifies a timer armed with RunAfter.
type TimerHandle uint64

// InvalidTimerHandle is never returned by RunAfter.
const InvalidTimerHandle TimerHandle = 0

// EventEngine schedules closures for asynchronous execution.
type EventEngine interface {
	// Run executes fn on another goroutine. It never runs fn inline.
	Run(fn func())

	// RunAfter executes fn on another goroutine after d has elapsed.
	RunAfter(d time.Duration, fn func()) TimerHandle

	// Cancel drops the timer h if it has not started yet. It returns false
	// if the timer already fired or was cancelled before. Cancel is safe to
	// race with the timer firing.
	Cancel(h TimerHandle) bool
}

// FromArgs extracts the EventEngine from a chanargs snapshot, falling back
// to the process default.
func FromArgs(args *chanargs.Args) EventEngine {
	if ee, ok := args.Value(ArgsKey).(EventEngine); ok {
		return ee
	}
	return Default()
}

// IntoArgs stores ee into a chanargs snapshot.
func IntoArgs(args *chanargs.Args, ee EventEngine) *chanargs.Args {
	return args.With(ArgsKey, ee)
}

type engine struct {
	mu     sync.Mutex
	tp     *timerPool
	nextID TimerHandle
	timers map[TimerHandle]chan struct{}
}

// New returns a goroutine-backed EventEngine with pooled timers.
func New() EventEngine {
	return &engine{
		tp:     newTimerPool(),
		timers: make(map[TimerHandle]chan struct{}),
	}
}

var (
	defaultOnce   sync.Once
	defaultEngine EventEngine
)

// Default returns the shared process-wide engine.
func Default() EventEngine {
	defaultOnce.Do(func() {
		defaultEngine = New()
	})
	return defaultEngine
}

func (e *engine) Run(fn func()) {
	go fn()
}

func (e *engine) RunAfter(d time.Duration, fn func()) TimerHandle {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	stop := make(chan struct{})
	e.timers[id] = stop
	e.mu.Unlock()
	go func() {
		t := e.tp.Get()
		defer e.tp.Put(t)
		t.Reset(d)
		select {
		case <-t.C:
			if e.take(id) {
				fn()
			}
		case <-stop:
		}
	}()
	return id
}

func (e *engine) Cancel(h TimerHandle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	stop, ok := e.timers[h]
	if !ok {
		return false
	}
	delete(e.timers, h)
	close(stop)
	return true
}

// take claims the right to run the timer task. It loses to a concurrent
// Cancel that got there first.
func (e *engine) take(h TimerHandle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.timers[h]; !ok {
		return false
	}
	delete(e.timers, h)
	return true
}
