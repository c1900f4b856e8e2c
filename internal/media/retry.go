package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playperu/geohunt/internal/geohunt"
)

const (
	DefaultRetries    = 10
	DefaultRetryDelay = 3 * time.Second
)

// errNotReady marks an attempt that may succeed later.
var errNotReady = errors.New("media store not connected")

// RetryPolicy bounds how long a query waits for the connection: each of the
// first Retries failed checks is followed by a Delay, then one last check
// decides. The defaults wait 30s over 11 checks. After overrides time.After
// in tests.
type RetryPolicy struct {
	Retries int
	Delay   time.Duration
	After   func(time.Duration) <-chan time.Time
}

// Do runs op until it returns anything other than errNotReady. When the
// check after the last wait still fails that way it returns
// ErrStoreUnavailable.
func (p RetryPolicy) Do(ctx context.Context, logger *slog.Logger, op func() error) error {
	retries := max(p.Retries, 0)
	after := p.After
	if after == nil {
		after = time.After
	}

	for waited := 0; ; waited++ {
		err := op()
		if !errors.Is(err, errNotReady) {
			return err
		}
		if waited >= retries {
			logger.Warn("media store not connected, giving up", "checks", waited+1)
			return fmt.Errorf("%w: not connected after %d checks", geohunt.ErrStoreUnavailable, waited+1)
		}
		logger.Info("media store not connected, waiting", "retry", waited+1, "max", retries, "delay", p.Delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-after(p.Delay):
		}
	}
}
