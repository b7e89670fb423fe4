package eventengine

import (
	"sync"
	"time"
)

// timerPool recycles stopped timers between RunAfter calls so that arming a
// handshake deadline does not allocate a new timer.
type timerPool struct {
	p sync.Pool
}

func newTimerPool() *timerPool {
	tp := &timerPool{}
	tp.p.New = func() any {
		// Parked far in the future; Reset sets the real interval.
		t := time.NewTimer(time.Hour * 1e6)
		t.Stop()
		return t
	}
	return tp
}

func (tp *timerPool) Get() *time.Timer {
	return tp.p.Get().(*time.Timer)
}

// Put stops t and drains a pending tick before returning it to the pool, so
// the next Get never observes a stale expiration.
func (tp *timerPool) Put(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	tp.p.Put(t)
}
