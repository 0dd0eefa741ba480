package client

import (
	"context"
	"crypto/rsa"
	"time"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// DialRetry dials the relay until a handshake succeeds or ctx is done,
// backing off exponentially between attempts. onRetry, if set, is told about
// each failure and the wait before the next attempt.
//
// Identifiers do not survive a reconnect: every successful dial gets a fresh
// one and usernames must be claimed again.
func DialRetry(ctx context.Context, address string, privateKey *rsa.PrivateKey, onRetry func(err error, wait time.Duration)) (*Client, error) {
	backoff := initialBackoff

	for {
		c, err := Dial(ctx, address, privateKey)
		if err == nil {
			return c, nil
		}

		if onRetry != nil {
			onRetry(err, backoff)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		// Exponential backoff
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
