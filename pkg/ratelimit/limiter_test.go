package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const endpoint = "statuses/user_timeline"

// fakeClock records sleeps instead of blocking and advances time by them
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func newTestWindow(opts ...Option) (*Window, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_600_000_000, 0)}
	opts = append([]Option{WithClock(clock.Now), WithSleep(clock.Sleep)}, opts...)
	return NewWindow(opts...), clock
}

func quotaHeader(remaining int, reset time.Time) http.Header {
	h := http.Header{}
	h.Set(HeaderRemaining, strconv.Itoa(remaining))
	h.Set(HeaderReset, strconv.FormatInt(reset.Unix(), 10))
	return h
}

func TestWaitUnknownEndpointDoesNotBlock(t *testing.T) {
	w, clock := newTestWindow()

	require.NoError(t, w.Wait(context.Background(), endpoint))
	assert.Empty(t, clock.sleeps)
	assert.True(t, w.Allow(endpoint))
}

func TestWaitWithQuotaLeft(t *testing.T) {
	w, clock := newTestWindow()
	w.Observe(endpoint, quotaHeader(3, clock.now.Add(10*time.Minute)))

	require.NoError(t, w.Wait(context.Background(), endpoint))
	assert.Empty(t, clock.sleeps)
}

func TestWaitBlocksUntilResetPlusSlack(t *testing.T) {
	w, clock := newTestWindow()
	w.Observe(endpoint, quotaHeader(0, clock.now.Add(2*time.Minute)))
	assert.False(t, w.Allow(endpoint))

	require.NoError(t, w.Wait(context.Background(), endpoint))
	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 2*time.Minute+DefaultSlack, clock.sleeps[0])

	// a second call after the wait passes straight through
	require.NoError(t, w.Wait(context.Background(), endpoint))
	assert.Len(t, clock.sleeps, 1)
}

func TestWaitResetAlreadyPassed(t *testing.T) {
	w, clock := newTestWindow()
	w.Observe(endpoint, quotaHeader(0, clock.now.Add(-time.Second)))

	require.NoError(t, w.Wait(context.Background(), endpoint))
	assert.Empty(t, clock.sleeps)
}

func TestEndpointsAreIndependent(t *testing.T) {
	w, clock := newTestWindow()
	w.Observe(endpoint, quotaHeader(0, clock.now.Add(time.Minute)))

	assert.True(t, w.Allow("account/verify_credentials"))
	assert.False(t, w.Allow(endpoint))
}

func TestExhaustUsesResetHeader(t *testing.T) {
	w, clock := newTestWindow(WithSlack(0))
	h := http.Header{}
	h.Set(HeaderReset, strconv.FormatInt(clock.now.Add(90*time.Second).Unix(), 10))
	w.Exhaust(endpoint, h)

	require.NoError(t, w.Wait(context.Background(), endpoint))
	assert.Equal(t, []time.Duration{90 * time.Second}, clock.sleeps)
}

func TestExhaustWithoutHeaderUsesFallback(t *testing.T) {
	w, clock := newTestWindow()
	w.Exhaust(endpoint, http.Header{})

	require.NoError(t, w.Wait(context.Background(), endpoint))
	assert.Equal(t, []time.Duration{DefaultFallback + DefaultSlack}, clock.sleeps)
}

func TestObserveIgnoresMissingHeaders(t *testing.T) {
	w, clock := newTestWindow()
	w.Observe(endpoint, quotaHeader(0, clock.now.Add(time.Minute)))
	w.Observe(endpoint, http.Header{})

	assert.False(t, w.Allow(endpoint), "a response without headers keeps the previous state")
}

func TestWaitHonorsContext(t *testing.T) {
	w, clock := newTestWindow()
	w.Exhaust(endpoint, http.Header{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, w.Wait(ctx, endpoint), context.Canceled)
	assert.Empty(t, clock.sleeps)
}

func TestOnWaitHook(t *testing.T) {
	var gotEndpoint string
	var gotDelay time.Duration
	w, _ := newTestWindow(WithFallback(time.Minute), WithSlack(time.Second), WithOnWait(func(e string, d time.Duration) {
		gotEndpoint = e
		gotDelay = d
	}))
	w.Exhaust(endpoint, nil)

	require.NoError(t, w.Wait(context.Background(), endpoint))
	assert.Equal(t, endpoint, gotEndpoint)
	assert.Equal(t, time.Minute+time.Second, gotDelay)
}

func TestReset(t *testing.T) {
	w, _ := newTestWindow()
	w.Exhaust(endpoint, http.Header{})
	w.Reset()
	assert.True(t, w.Allow(endpoint))
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.DeadlineExceeded)
}
