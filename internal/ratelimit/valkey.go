package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyLimiter is a fixed-window limiter whose counters live in valkey.
// The first hit of a window sets the key expiry; the window resets when
// the key expires.
type ValkeyLimiter struct {
	client valkey.Client
	max    int
	window time.Duration
	prefix string
}

func NewValkeyLimiter(client valkey.Client, max int, win time.Duration) *ValkeyLimiter {
	if max <= 0 {
		max = DefaultMax
	}
	if win <= 0 {
		win = DefaultWindow
	}
	return &ValkeyLimiter{client: client, max: max, window: win, prefix: "ratelimit:"}
}

// Dial connects to a valkey server at addr.
func Dial(addr string) (valkey.Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:  []string{addr},
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}
	return client, nil
}

func (l *ValkeyLimiter) Check(ctx context.Context, key string) (Decision, error) {
	k := l.prefix + key

	count, err := l.client.Do(ctx, l.client.B().Incr().Key(k).Build()).AsInt64()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Do(ctx, l.client.B().Pexpire().Key(k).Milliseconds(l.window.Milliseconds()).Build()).Error(); err != nil {
			return Decision{}, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	ttl, err := l.client.Do(ctx, l.client.B().Pttl().Key(k).Build()).AsInt64()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit ttl: %w", err)
	}
	resetIn := time.Duration(ttl) * time.Millisecond
	if ttl < 0 {
		// key lost its expiry (e.g. crash between INCR and PEXPIRE); restore it
		_ = l.client.Do(ctx, l.client.B().Pexpire().Key(k).Milliseconds(l.window.Milliseconds()).Build()).Error()
		resetIn = l.window
	}

	if int(count) > l.max {
		return Decision{Allowed: false, Remaining: 0, ResetIn: resetIn}, nil
	}
	return Decision{Allowed: true, Remaining: l.max - int(count), ResetIn: resetIn}, nil
}
