package tlshs

import (
	"crypto/tls"
	"io"
	"net"
	"time"

	"github.com/halyard-rpc/halyard/pkg/endpoint"
)

// endpointConn adapts an Endpoint plus its pre-read bytes to the net.Conn
// surface crypto/tls requires. Deadlines are not supported; cancellation
// goes through closing the endpoint.
type endpointConn struct {
	ep endpoint.Endpoint
	r  io.Reader
}

func (c *endpointConn) Read(p []byte) (int, error)  { return c.r.Read(p) }
func (c *endpointConn) Write(p []byte) (int, error) { return c.ep.Write(p) }
func (c *endpointConn) Close() error                { return c.ep.Close() }
func (c *endpointConn) LocalAddr() net.Addr         { return c.ep.LocalAddr() }
func (c *endpointConn) RemoteAddr() net.Addr        { return c.ep.RemoteAddr() }

func (c *endpointConn) SetDeadline(time.Time) error      { return nil }
func (c *endpointConn) SetReadDeadline(time.Time) error  { return nil }
func (c *endpointConn) SetWriteDeadline(time.Time) error { return nil }

// tlsEndpoint is the endpoint the pipeline continues with after a
// successful TLS handshake.
type tlsEndpoint struct {
	conn  *tls.Conn
	under endpoint.Endpoint
}

func (e *tlsEndpoint) Read(p []byte) (int, error)  { return e.conn.Read(p) }
func (e *tlsEndpoint) Write(p []byte) (int, error) { return e.conn.Write(p) }
func (e *tlsEndpoint) Close() error                { return e.conn.Close() }
func (e *tlsEndpoint) LocalAddr() net.Addr         { return e.under.LocalAddr() }
func (e *tlsEndpoint) RemoteAddr() net.Addr        { return e.under.RemoteAddr() }
