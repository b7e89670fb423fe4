package eventengine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/halyard-rpc/halyard/pkg/chanargs"
	"github.com/halyard-rpc/halyard/pkg/eventengine"
)

const testsTimeout = 500 * time.Millisecond

func TestRunExecutesAsynchronously(t *testing.T) {
	defer goleak.VerifyNone(t)

	ee := eventengine.New()
	ch := make(chan struct{})
	ee.Run(func() { close(ch) })
	select {
	case <-ch:
	case <-time.After(testsTimeout):
		t.Fatal("task did not run")
	}
}

func TestRunAfterFires(t *testing.T) {
	defer goleak.VerifyNone(t)

	ee := eventengine.New()
	ch := make(chan time.Time, 1)
	started := time.Now()
	h := ee.RunAfter(20*time.Millisecond, func() { ch <- time.Now() })
	require.NotEqual(t, eventengine.InvalidTimerHandle, h)

	select {
	case fired := <-ch:
		assert.GreaterOrEqual(t, fired.Sub(started), 20*time.Millisecond)
	case <-time.After(testsTimeout):
		t.Fatal("timer did not fire")
	}

	// The timer already fired, cancelling is a no-op.
	assert.False(t, ee.Cancel(h))
}

func TestCancelPreventsExecution(t *testing.T) {
	defer goleak.VerifyNone(t)

	ee := eventengine.New()
	fired := make(chan struct{}, 1)
	h := ee.RunAfter(50*time.Millisecond, func() { fired <- struct{}{} })

	require.True(t, ee.Cancel(h))
	assert.False(t, ee.Cancel(h))

	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCancelUnknownHandle(t *testing.T) {
	defer goleak.VerifyNone(t)

	ee := eventengine.New()
	assert.False(t, ee.Cancel(eventengine.InvalidTimerHandle))
	assert.False(t, ee.Cancel(eventengine.TimerHandle(12345)))
}

func TestArgsRoundTrip(t *testing.T) {
	ee := eventengine.New()
	args := eventengine.IntoArgs(chanargs.New(), ee)
	assert.Same(t, ee, eventengine.FromArgs(args))

	// Snapshots without an engine fall back to the process default.
	assert.Same(t, eventengine.Default(), eventengine.FromArgs(chanargs.New()))
	assert.Same(t, eventengine.Default(), eventengine.Default())
}
