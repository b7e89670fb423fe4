package tlshs_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
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
	"github.com/halyard-rpc/halyard/pkg/handshake/tlshs"
	"github.com/halyard-rpc/halyard/pkg/slicebuf"
)

const testsTimeout = time.Second

func selfSignedCert(t *testing.T) (tls.Certificate, *x509.CertPool) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-server"},
		DNSNames:     []string{"test-server"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	pool := x509.NewCertPool()
	pool.AddCert(leaf)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}, pool
}

func newArgs(t *testing.T, ep endpoint.Endpoint) *handshake.Args {
	t.Helper()
	t.Cleanup(func() {
		if ep != nil {
			_ = ep.Close()
		}
	})
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

func TestClientServerHandshake(t *testing.T) {
	defer goleak.VerifyNone(t)

	cert, pool := selfSignedCert(t)
	clientEp, serverEp := endpoint.Pipe()
	clientArgs := newArgs(t, clientEp)
	serverArgs := newArgs(t, serverEp)

	client := tlshs.NewClient(&tls.Config{
		ServerName: "test-server",
		RootCAs:    pool,
		NextProtos: []string{"h2"},
		MinVersion: tls.VersionTLS12,
	})
	server := tlshs.NewServer(&tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"h2"},
		MinVersion:   tls.VersionTLS12,
	})

	clientCh := start(client, clientArgs)
	serverCh := start(server, serverArgs)

	require.NoError(t, wait(t, clientCh))
	require.NoError(t, wait(t, serverCh))

	// The pipeline continues on the TLS endpoints.
	assert.NotSame(t, clientEp, clientArgs.Endpoint)
	assert.Equal(t, "h2", clientArgs.Args.String(tlshs.NegotiatedProtocolKey, ""))
	assert.Equal(t, "h2", serverArgs.Args.String(tlshs.NegotiatedProtocolKey, ""))

	// Application bytes flow through the session.
	go func() {
		_, _ = clientArgs.Endpoint.Write([]byte("secret"))
	}()
	buf := make([]byte, 6)
	_, err := io.ReadFull(serverArgs.Endpoint, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), buf)

	_ = clientArgs.Endpoint.Close()
	_ = serverArgs.Endpoint.Close()
}

func TestRejectsUnknownAuthority(t *testing.T) {
	defer goleak.VerifyNone(t)

	cert, _ := selfSignedCert(t)
	clientEp, serverEp := endpoint.Pipe()
	clientArgs := newArgs(t, clientEp)
	serverArgs := newArgs(t, serverEp)

	// The client has no roots, so verification must fail.
	client := tlshs.NewClient(&tls.Config{
		ServerName: "test-server",
		MinVersion: tls.VersionTLS12,
	})
	server := tlshs.NewServer(&tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})

	clientCh := start(client, clientArgs)
	serverCh := start(server, serverArgs)

	require.Error(t, wait(t, clientCh))
	require.Error(t, wait(t, serverCh))
}

func TestShutdownCancelsHandshake(t *testing.T) {
	defer goleak.VerifyNone(t)

	clientEp, serverEp := endpoint.Pipe()
	clientArgs := newArgs(t, clientEp)
	t.Cleanup(func() { _ = serverEp.Close() })

	// No server side; the handshake can never complete.
	client := tlshs.NewClient(&tls.Config{
		ServerName: "test-server",
		MinVersion: tls.VersionTLS12,
	})
	clientCh := start(client, clientArgs)

	client.Shutdown(errors.New("giving up"))
	require.Error(t, wait(t, clientCh))
	client.Shutdown(errors.New("again"))
}
