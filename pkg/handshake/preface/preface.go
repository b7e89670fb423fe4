// Package preface implements the server-side check of the HTTP/2-style
// connection preface. Health probes short-circuit the chain without an
// error; anything else that is not the expected preface fails the
// handshake. Bytes following the preface stay in the read buffer for the
// next handshaker.
package preface

import (
	"bytes"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/halyard-rpc/halyard/pkg/handshake"
)

// ClientPreface is the exact byte sequence a well-behaved client opens the
// connection with.
const ClientPreface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

const (
	probeRequest  = "PING"
	probeResponse = "PONG"
)

type handshaker struct {
	mu       sync.Mutex
	args     *handshake.Args
	done     handshake.DoneFunc
	shutdown bool
}

// NewServer returns the preface-checking handshaker.
func NewServer() handshake.Handshaker {
	return &handshaker{}
}

func (h *handshaker) Name() string {
	return "preface_server"
}

func (h *handshaker) DoHandshake(args *handshake.Args, done handshake.DoneFunc) {
	h.mu.Lock()
	h.args = args
	h.done = done
	h.mu.Unlock()
	go h.run(args)
}

func (h *handshaker) Shutdown(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.shutdown {
		return
	}
	h.shutdown = true
	if h.done != nil && h.args != nil && h.args.Endpoint != nil {
		_ = h.args.Endpoint.Close()
	}
}

func (h *handshaker) run(args *handshake.Args) {
	err := h.check(args)
	h.mu.Lock()
	done := h.done
	h.done = nil
	h.mu.Unlock()
	if done == nil {
		return
	}
	handshake.InvokeDone(args, done, err)
}

func (h *handshaker) check(args *handshake.Args) error {
	r := io.MultiReader(args.ReadBuffer, args.Endpoint)
	head := make([]byte, len(probeRequest))
	if _, err := io.ReadFull(r, head); err != nil {
		return errors.Wrap(err, "failed to read connection preface")
	}
	if string(head) == probeRequest {
		if _, err := args.Endpoint.Write([]byte(probeResponse)); err != nil {
			return errors.Wrap(err, "failed to answer probe")
		}
		args.TraceNode.Log("health probe answered, exiting early")
		args.ExitEarly = true
		return nil
	}
	rest := make([]byte, len(ClientPreface)-len(head))
	if _, err := io.ReadFull(r, rest); err != nil {
		return errors.Wrap(err, "failed to read connection preface")
	}
	if !bytes.Equal(append(head, rest...), []byte(ClientPreface)) {
		return errors.New("bad preface")
	}
	args.TraceNode.Log("client preface verified")
	return nil
}
