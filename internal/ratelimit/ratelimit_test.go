package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryLimiter_SixthRequestRejected(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter(5, time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		d, err := l.Check(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 5-i, d.Remaining, "request %d", i)
		clock.Advance(time.Second)
	}

	d, err := l.Check(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 55*time.Second, d.ResetIn)
}

func TestMemoryLimiter_WindowResets(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter(5, time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	first, _ := l.Check(ctx, "ip")
	assert.Equal(t, time.Minute, first.ResetIn)
	for i := 0; i < 5; i++ {
		_, _ = l.Check(ctx, "ip")
	}
	denied, _ := l.Check(ctx, "ip")
	require.False(t, denied.Allowed)

	clock.Advance(denied.ResetIn)

	d, err := l.Check(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 4, d.Remaining, "counter restarts at 1")
	assert.Equal(t, time.Minute, d.ResetIn)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	ctx := context.Background()

	a, _ := l.Check(ctx, "a")
	b, _ := l.Check(ctx, "b")
	a2, _ := l.Check(ctx, "a")

	assert.True(t, a.Allowed)
	assert.True(t, b.Allowed)
	assert.False(t, a2.Allowed)
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	l := NewMemoryLimiter(5, time.Minute, WithClock(clock.Now))
	ctx := context.Background()

	_, _ = l.Check(ctx, "a")
	clock.Advance(30 * time.Second)
	_, _ = l.Check(ctx, "b")
	clock.Advance(31 * time.Second)

	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 0, l.Sweep())
}

func TestNewMemoryLimiter_Defaults(t *testing.T) {
	l := NewMemoryLimiter(0, 0)
	assert.Equal(t, DefaultMax, l.max)
	assert.Equal(t, DefaultWindow, l.window)
}
