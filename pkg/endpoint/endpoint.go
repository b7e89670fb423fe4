// Package endpoint defines the owned bidirectional byte channel the
// handshake pipeline operates on, and helpers to obtain one from the
// network.
package endpoint

import (
	"io"
	"net"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Endpoint is an exclusively-owned bidirectional byte channel. The owner may
// wrap it into a new Endpoint (e.g. adding TLS) or close it. Close is
// idempotent.
type Endpoint interface {
	io.ReadWriteCloser
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

type connEndpoint struct {
	conn   net.Conn
	closed *atomic.Bool
}

// FromConn wraps an established connection into an Endpoint.
func FromConn(conn net.Conn) Endpoint {
	return &connEndpoint{conn: conn, closed: atomic.NewBool(false)}
}

func (e *connEndpoint) Read(p []byte) (int, error) {
	return e.conn.Read(p)
}

func (e *connEndpoint) Write(p []byte) (int, error) {
	return e.conn.Write(p)
}

func (e *connEndpoint) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := e.conn.Close()
	if err != nil {
		zap.S().Debugf("failed to close connection to %s: %v", e.conn.RemoteAddr(), err)
	}
	return err
}

func (e *connEndpoint) LocalAddr() net.Addr {
	return e.conn.LocalAddr()
}

func (e *connEndpoint) RemoteAddr() net.Addr {
	return e.conn.RemoteAddr()
}

// Conn exposes the underlying net.Conn of endpoints produced by FromConn,
// or nil for foreign implementations.
func Conn(e Endpoint) net.Conn {
	if ce, ok := e.(*connEndpoint); ok {
		return ce.conn
	}
	return nil
}

// Pipe returns a connected pair of in-memory endpoints, for tests.
func Pipe() (Endpoint, Endpoint) {
	c1, c2 := net.Pipe()
	return FromConn(c1), FromConn(c2)
}
