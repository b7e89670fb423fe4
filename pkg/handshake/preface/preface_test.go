package preface_test

import (
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/halyard-rpc/halyard/pkg/chanargs"
	"github.com/halyard-rpc/halyard/pkg/endpoint"
	"github.com/halyard-rpc/halyard/pkg/eventengine"
	"github.com/halyard-rpc/halyard/pkg/handshake"
	"github.com/halyard-rpc/halyard/pkg/handshake/preface"
	"github.com/halyard-rpc/halyard/pkg/slicebuf"
)

const testsTimeout = 500 * time.Millisecond

func newArgs(t *testing.T, ep endpoint.Endpoint) *handshake.Args {
	t.Helper()
	t.Cleanup(func() { _ = ep.Close() })
	return &handshake.Args{
		Endpoint:    ep,
		Args:        chanargs.New(),
		ReadBuffer:  slicebuf.New(),
		EventEngine: eventengine.New(),
	}
}

func start(hs handshake.Handshaker, args *handshake.Args) <-chan error {
	ch := make(chan error, 1)
	hs.DoHandshake(args, func(err error) { ch <- err })
	return ch
}

func wait(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(testsTimeout):
		require.Fail(t, "handshaker did not complete")
		return nil
	}
}

func TestAcceptsClientPreface(t *testing.T) {
	defer goleak.VerifyNone(t)

	serverEp, peerEp := endpoint.Pipe()
	args := newArgs(t, serverEp)
	t.Cleanup(func() { _ = peerEp.Close() })

	hs := preface.NewServer()
	ch := start(hs, args)

	go func() {
		_, _ = peerEp.Write([]byte(preface.ClientPreface))
	}()

	require.NoError(t, wait(t, ch))
	assert.False(t, args.ExitEarly)
}

func TestRejectsGarbage(t *testing.T) {
	defer goleak.VerifyNone(t)

	serverEp, peerEp := endpoint.Pipe()
	args := newArgs(t, serverEp)
	t.Cleanup(func() { _ = peerEp.Close() })

	hs := preface.NewServer()
	ch := start(hs, args)

	go func() {
		_, _ = peerEp.Write([]byte("GET / HTTP/1.1\r\nHost: example\r\n\r\n"))
	}()

	err := wait(t, ch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad preface")

	// The handshaker stops reading after the preface length, so the writer
	// is still blocked on the rest of the payload; closing the peer
	// unblocks it before the leak check runs.
	_ = peerEp.Close()
}

func TestAnswersHealthProbe(t *testing.T) {
	defer goleak.VerifyNone(t)

	serverEp, peerEp := endpoint.Pipe()
	args := newArgs(t, serverEp)
	t.Cleanup(func() { _ = peerEp.Close() })

	hs := preface.NewServer()
	ch := start(hs, args)

	reply := make(chan []byte, 1)
	go func() {
		_, _ = peerEp.Write([]byte("PING"))
		buf := make([]byte, 4)
		if _, err := io.ReadFull(peerEp, buf); err == nil {
			reply <- buf
		}
	}()

	require.NoError(t, wait(t, ch))
	assert.True(t, args.ExitEarly)
	select {
	case b := <-reply:
		assert.Equal(t, []byte("PONG"), b)
	case <-time.After(testsTimeout):
		t.Fatal("no probe response")
	}
}

func TestConsumesPrefaceFromReadBuffer(t *testing.T) {
	defer goleak.VerifyNone(t)

	serverEp, peerEp := endpoint.Pipe()
	args := newArgs(t, serverEp)
	t.Cleanup(func() { _ = peerEp.Close() })

	// Preface plus the first frame were pre-read by the acceptor; only the
	// preface may be consumed.
	args.ReadBuffer.Append([]byte(preface.ClientPreface))
	args.ReadBuffer.Append([]byte("SETTINGS-FRAME"))

	hs := preface.NewServer()
	require.NoError(t, wait(t, start(hs, args)))
	assert.Equal(t, []byte("SETTINGS-FRAME"), args.ReadBuffer.Bytes())
}

func TestShutdownClosesEndpoint(t *testing.T) {
	defer goleak.VerifyNone(t)

	serverEp, peerEp := endpoint.Pipe()
	args := newArgs(t, serverEp)
	t.Cleanup(func() { _ = peerEp.Close() })

	hs := preface.NewServer()
	ch := start(hs, args)

	hs.Shutdown(errors.New("closing"))
	require.Error(t, wait(t, ch))
}
