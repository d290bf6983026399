// Package waiter implements the DIR Liveness Waiter (§4.7): it blocks
// startup until a TCP connection to DIR succeeds or a deadline expires,
// the same retry-until-deadline shape pkg/healthcheck's runCheck uses for
// its retryDeadline loop, adapted from a fixed retryWindow to the linearly
// increasing per-attempt backoff this component specifies.
package waiter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// connectTimeout bounds each individual TCP connect attempt.
const connectTimeout = 2 * time.Second

// DialFunc matches the subset of net.Dialer.DialContext this package needs,
// overridable in tests.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Waiter blocks until a TCP connection to a configured address succeeds.
type Waiter struct {
	Dial  DialFunc
	Sleep func(ctx context.Context, d time.Duration) error
}

// New returns a Waiter wired to the real network stack.
func New() *Waiter {
	var d net.Dialer
	return &Waiter{
		Dial:  d.DialContext,
		Sleep: sleepContext,
	}
}

// WaitForDIR blocks until a TCP connection to address succeeds, retrying
// with a linearly increasing backoff (1s, 2s, 3s, ...) between attempts,
// until maxWait elapses. ctx cancellation surfaces as a startup failure,
// per §5's cancellation requirement (b).
func (w *Waiter) WaitForDIR(ctx context.Context, address string, maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)

	for attempt := 1; ; attempt++ {
		dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		conn, err := w.Dial(dialCtx, "tcp", address)
		cancel()
		if err == nil {
			conn.Close()
			return nil
		}

		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return fmt.Errorf("waiter: %s: dns resolution failed: %w", address, err)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("waiter: %s: not reachable after %s: %w", address, maxWait, err)
		}

		backoff := time.Duration(attempt) * time.Second
		if err := w.Sleep(ctx, backoff); err != nil {
			return fmt.Errorf("waiter: %s: interrupted while waiting: %w", address, err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
