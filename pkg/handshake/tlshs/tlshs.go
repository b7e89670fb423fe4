// Package tlshs wraps the endpoint of a handshake into a TLS session. On
// success the pipeline's endpoint is replaced with one reading and writing
// through the TLS connection.
package tlshs

import (
	"context"
	"crypto/tls"
	"io"
	"sync"

	"github.com/pkg/errors"

	"github.com/halyard-rpc/halyard/pkg/handshake"
)

// NegotiatedProtocolKey is the channel args key under which the ALPN result
// is published.
const NegotiatedProtocolKey = "tls.negotiated_protocol"

type handshaker struct {
	config *tls.Config
	client bool

	mu       sync.Mutex
	args     *handshake.Args
	done     handshake.DoneFunc
	cancel   context.CancelFunc
	shutdown bool
}

// NewClient returns a handshaker performing the client side of a TLS
// handshake with the given configuration.
func NewClient(config *tls.Config) handshake.Handshaker {
	return &handshaker{config: config, client: true}
}

// NewServer returns a handshaker performing the server side of a TLS
// handshake with the given configuration.
func NewServer(config *tls.Config) handshake.Handshaker {
	return &handshaker{config: config, client: false}
}

func (h *handshaker) Name() string {
	if h.client {
		return "tls_client"
	}
	return "tls_server"
}

func (h *handshaker) DoHandshake(args *handshake.Args, done handshake.DoneFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	h.mu.Lock()
	h.args = args
	h.done = done
	h.cancel = cancel
	h.mu.Unlock()
	go h.run(ctx, args)
}

func (h *handshaker) Shutdown(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.shutdown {
		return
	}
	h.shutdown = true
	if h.cancel != nil {
		h.cancel()
	}
	if h.done != nil && h.args != nil && h.args.Endpoint != nil {
		_ = h.args.Endpoint.Close()
	}
}

func (h *handshaker) run(ctx context.Context, args *handshake.Args) {
	err := h.wrap(ctx, args)
	h.mu.Lock()
	done := h.done
	h.done = nil
	h.mu.Unlock()
	if done == nil {
		return
	}
	handshake.InvokeDone(args, done, err)
}

func (h *handshaker) wrap(ctx context.Context, args *handshake.Args) error {
	under := args.Endpoint
	ec := &endpointConn{ep: under, r: io.MultiReader(args.ReadBuffer, under)}
	var tc *tls.Conn
	if h.client {
		tc = tls.Client(ec, h.config)
	} else {
		tc = tls.Server(ec, h.config)
	}
	if err := tc.HandshakeContext(ctx); err != nil {
		return errors.Wrap(err, "TLS handshake failed")
	}
	state := tc.ConnectionState()
	args.Endpoint = &tlsEndpoint{conn: tc, under: under}
	if state.NegotiatedProtocol != "" {
		args.Args = args.Args.With(NegotiatedProtocolKey, state.NegotiatedProtocol)
	}
	args.TraceNode.Log("TLS session established with " + tls.VersionName(state.Version))
	return nil
}
