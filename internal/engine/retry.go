package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig controls startup connection retries.
type RetryConfig struct {
	MaxTries       uint
	InitialWait    time.Duration
	MaxWait        time.Duration
	MaxElapsedTime time.Duration
}

// DefaultRetryConfig is suitable for connecting to databases at startup.
var DefaultRetryConfig = RetryConfig{
	MaxTries:       5,
	InitialWait:    500 * time.Millisecond,
	MaxWait:        5 * time.Second,
	MaxElapsedTime: 30 * time.Second,
}

// RetryConnect calls ping until it succeeds, backing off exponentially between
// transient failures. Non-transient errors (bad credentials, unknown database)
// return immediately.
func RetryConnect(ctx context.Context, rc RetryConfig, name string, ping func(context.Context) error) error {
	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		err := ping(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if !isRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		slog.Debug("connect retrying", slog.String("target", name), slog.Int("attempt", attempt), slog.Any("error", err))
		return struct{}{}, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = rc.InitialWait
	bo.MaxInterval = rc.MaxWait

	if _, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(rc.MaxTries),
		backoff.WithMaxElapsedTime(rc.MaxElapsedTime),
	); err != nil {
		return fmt.Errorf("connect %s after %d attempts: %w", name, attempt, err)
	}
	return nil
}

// isRetryable returns true for transient network errors worth retrying.
func isRetryable(err error) bool {
	// Connection errors (dial failures, connection refused, etc.)
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	// DNS errors
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	// Timeout errors (net.Error includes OpError, so check after OpError)
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
