package endpoint

import (
	"context"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	dialInitialInterval = 500 * time.Millisecond
	dialMaxElapsedTime  = 30 * time.Second
)

// Dial connects to addr with exponential backoff until the context is
// cancelled or the retry budget is exhausted.
func Dial(ctx context.Context, network, addr string) (Endpoint, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = dialInitialInterval
	bo.MaxElapsedTime = dialMaxElapsedTime

	var conn net.Conn
	err := backoff.Retry(func() error {
		d := net.Dialer{}
		c, dErr := d.DialContext(ctx, network, addr)
		if dErr != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(dErr)
			}
			zap.S().Debugf("failed to dial %s: %v, retrying", addr, dErr)
			return dErr
		}
		conn = c
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s", addr)
	}
	return FromConn(conn), nil
}
