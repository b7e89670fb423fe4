package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"github.com/halyard-rpc/halyard/pkg/chanargs"
	"github.com/halyard-rpc/halyard/pkg/endpoint"
	"github.com/halyard-rpc/halyard/pkg/eventengine"
	"github.com/halyard-rpc/halyard/pkg/handshake"
	"github.com/halyard-rpc/halyard/pkg/handshake/greeting"
	"github.com/halyard-rpc/halyard/pkg/handshake/tlshs"
	"github.com/halyard-rpc/halyard/pkg/lifecycle"
	"github.com/halyard-rpc/halyard/pkg/logging"
	"github.com/halyard-rpc/halyard/pkg/metrics"
)

var version = "v0.0.0"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		showHelp    bool
		showVersion bool
		address     string
		appName     string
		nodeName    string
		timeout     time.Duration
		useTLS      bool
		serverName  string
		insecure    bool
		logParams   logging.Parameters
	)

	flag.StringVarP(&address, "address", "a", "", "Address of the peer to probe, for example \"127.0.0.1:6868\"")
	flag.StringVar(&appName, "app-name", "halyard", "Application name announced in the greeting")
	flag.StringVar(&nodeName, "node-name", "hsprobe", "Node name announced in the greeting")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Deadline for the whole handshake")
	flag.BoolVar(&useTLS, "tls", false, "Run a TLS handshake after the greeting exchange")
	flag.StringVar(&serverName, "tls-server-name", "", "Expected server name of the peer's certificate")
	flag.BoolVar(&insecure, "tls-insecure", false, "Skip verification of the peer's certificate")
	flag.BoolVarP(&showHelp, "help", "h", false, "Print usage information (this message) and quit")
	flag.BoolVarP(&showVersion, "version", "v", false, "Print version information and quit")
	logParams.Initialize()
	flag.Usage = showUsage
	flag.Parse()

	if showHelp {
		showUsage()
		return 0
	}
	if showVersion {
		fmt.Printf("hsprobe %s\n", version)
		return 0
	}
	if err := logParams.Parse(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid logging parameters: %v\n", err)
		return 2
	}
	if address == "" {
		showUsage()
		return 2
	}

	handler := logging.DefaultHandler(logParams)
	log := slog.New(handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ep, err := endpoint.Dial(ctx, "tcp", address)
	if err != nil {
		log.Error("Failed to connect", logging.Error(err))
		return 1
	}

	lifecycle.RegisterHandshaker(handshake.TypeClient, func(_ *chanargs.Args, m *handshake.Manager) {
		m.Add(greeting.NewClient(greeting.Params{
			AppName:  appName,
			Version:  currentVersion(),
			NodeName: nodeName,
			Nonce:    rand.Uint64(),
		}))
	})
	if useTLS {
		lifecycle.RegisterHandshaker(handshake.TypeClient, func(_ *chanargs.Args, m *handshake.Manager) {
			m.Add(tlshs.NewClient(&tls.Config{
				ServerName:         serverName,
				InsecureSkipVerify: insecure,
				MinVersion:         tls.VersionTLS12,
			}))
		})
	}

	mgr := handshake.NewManager(handshake.NewConfig().
		WithSlogHandler(handler).
		WithSlogAttribute(slog.String("peer", address)).
		WithMetrics(metrics.NewHandshake(prometheus.NewRegistry())))

	args := eventengine.IntoArgs(chanargs.New(), eventengine.Default())
	lifecycle.Registry().AddHandshakers(handshake.TypeClient, args, mgr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("Shutting down")
		mgr.Shutdown(errors.New("interrupted"))
		lifecycle.Shutdown()
	}()

	type outcome struct {
		args *handshake.Args
		err  error
	}
	resCh := make(chan outcome, 1)
	mgr.DoHandshake(ep, args, time.Now().Add(timeout), nil, func(res *handshake.Args, err error) {
		resCh <- outcome{args: res, err: err}
	})
	res := <-resCh
	if res.err != nil {
		log.Error("Handshake failed", logging.Error(res.err))
		return 1
	}
	defer func() { _ = res.args.Endpoint.Close() }()

	log.Info("Handshake succeeded",
		slog.String("peer.name", res.args.Args.String(greeting.PeerNameKey, "")),
		slog.String("peer.version", res.args.Args.String(greeting.PeerVersionKey, "")),
		slog.String("alpn", res.args.Args.String(tlshs.NegotiatedProtocolKey, "")))
	fmt.Printf("Peer at %s: %s\n", address, res.args.Args.Format())
	return 0
}

func currentVersion() greeting.Version {
	var v greeting.Version
	_, _ = fmt.Sscanf(version, "v%d.%d.%d", &v.Major, &v.Minor, &v.Patch)
	return v
}

func showUsage() {
	_, _ = fmt.Fprintf(os.Stderr,
		"\nUsage of hsprobe %s\n\thsprobe [flags] -a <host:port>\nFlags:\n", version)
	flag.PrintDefaults()
}
