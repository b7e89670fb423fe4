package greeting

import (
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/halyard-rpc/halyard/pkg/handshake"
)

// Channel args keys under which the peer's identity is published after a
// successful greeting exchange.
const (
	PeerNameKey    = "greeting.peer.name"
	PeerNonceKey   = "greeting.peer.nonce"
	PeerVersionKey = "greeting.peer.version"
)

// Params configures the local side of the greeting exchange.
type Params struct {
	AppName  string
	Version  Version
	NodeName string
	Nonce    uint64
}

type handshaker struct {
	params    Params
	sendFirst bool

	mu       sync.Mutex
	args     *handshake.Args
	done     handshake.DoneFunc
	shutdown bool
}

// NewClient returns a handshaker that sends its greeting first and then
// waits for the peer's.
func NewClient(p Params) handshake.Handshaker {
	return &handshaker{params: p, sendFirst: true}
}

// NewServer returns a handshaker that waits for the peer's greeting and
// replies with its own.
func NewServer(p Params) handshake.Handshaker {
	return &handshaker{params: p, sendFirst: false}
}

func (h *handshaker) Name() string {
	if h.sendFirst {
		return "greeting_client"
	}
	return "greeting_server"
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
		// Unblock the exchange goroutine; it reports the read error.
		_ = h.args.Endpoint.Close()
	}
}

func (h *handshaker) run(args *handshake.Args) {
	err := h.exchange(args)
	h.mu.Lock()
	done := h.done
	h.done = nil
	h.mu.Unlock()
	if done == nil {
		return
	}
	handshake.InvokeDone(args, done, err)
}

func (h *handshaker) exchange(args *handshake.Args) error {
	own := Greeting{
		AppName:   h.params.AppName,
		Version:   h.params.Version,
		NodeName:  h.params.NodeName,
		Nonce:     h.params.Nonce,
		Timestamp: uint64(time.Now().UnixMilli()),
	}
	// Serve bytes the acceptor pre-read before touching the wire.
	r := io.MultiReader(args.ReadBuffer, args.Endpoint)
	if h.sendFirst {
		if _, err := own.WriteTo(args.Endpoint); err != nil {
			return errors.Wrap(err, "failed to send greeting")
		}
	}
	var peer Greeting
	if _, err := peer.ReadFrom(r); err != nil {
		return errors.Wrap(err, "failed to receive greeting")
	}
	if err := h.validate(peer); err != nil {
		return err
	}
	if !h.sendFirst {
		if _, err := own.WriteTo(args.Endpoint); err != nil {
			return errors.Wrap(err, "failed to send greeting")
		}
	}
	args.Args = args.Args.
		With(PeerNameKey, peer.NodeName).
		With(PeerNonceKey, peer.Nonce).
		With(PeerVersionKey, peer.Version.String())
	args.TraceNode.Log("greeting exchange finished with peer " + peer.NodeName)
	return nil
}

func (h *handshaker) validate(peer Greeting) error {
	if peer.AppName != h.params.AppName {
		return errors.Errorf("unexpected application %q, want %q", peer.AppName, h.params.AppName)
	}
	if !h.params.Version.Compatible(peer.Version) {
		return errors.Errorf("incompatible version %s, want major %d", peer.Version, h.params.Version.Major)
	}
	if peer.Nonce == h.params.Nonce && peer.Nonce != 0 {
		return errors.New("connection to self rejected")
	}
	return nil
}
