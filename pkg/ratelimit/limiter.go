package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	// HeaderRemaining is the number of requests left in the current window
	HeaderRemaining = "x-rate-limit-remaining"
	// HeaderReset is the epoch second at which the window resets
	HeaderReset = "x-rate-limit-reset"

	// DefaultSlack is added to every wait so the reset has really happened server side
	DefaultSlack = 5 * time.Second
	// DefaultFallback is the wait used when a throttled response carries no reset header
	DefaultFallback = 15 * time.Minute
)

// Limiter defines the interface the timeline client uses for quota handling
type Limiter interface {
	// Wait blocks until a request to endpoint is allowed
	Wait(ctx context.Context, endpoint string) error
	// Observe records the quota headers of a response
	Observe(endpoint string, header http.Header)
	// Exhaust marks endpoint as out of quota after a throttled response
	Exhaust(endpoint string, header http.Header)
}

// quota is the last known state of one endpoint's window
type quota struct {
	remaining int
	reset     time.Time
}

// Window tracks server-reported request windows per endpoint
type Window struct {
	mu       sync.Mutex
	quotas   map[string]*quota
	slack    time.Duration
	fallback time.Duration
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	onWait   func(endpoint string, d time.Duration)
}

// Option configures a Window
type Option func(*Window)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(w *Window) { w.now = now }
}

// WithSleep replaces the context aware sleep used while waiting
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(w *Window) { w.sleep = sleep }
}

// WithSlack sets the extra time added to each wait
func WithSlack(d time.Duration) Option {
	return func(w *Window) { w.slack = d }
}

// WithFallback sets the wait used when no reset header is available
func WithFallback(d time.Duration) Option {
	return func(w *Window) { w.fallback = d }
}

// WithOnWait registers a hook called before each blocking wait
func WithOnWait(fn func(endpoint string, d time.Duration)) Option {
	return func(w *Window) { w.onWait = fn }
}

// NewWindow creates an empty Window. Endpoints are unrestricted until a response is observed.
func NewWindow(opts ...Option) *Window {
	w := &Window{
		quotas:   make(map[string]*quota),
		slack:    DefaultSlack,
		fallback: DefaultFallback,
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Observe records the quota headers of a response. Responses without headers are ignored.
func (w *Window) Observe(endpoint string, header http.Header) {
	remaining, okRemaining := parseInt(header.Get(HeaderRemaining))
	reset, okReset := parseInt(header.Get(HeaderReset))
	if !okRemaining && !okReset {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	q := w.quota(endpoint)
	if okRemaining {
		q.remaining = remaining
	}
	if okReset {
		q.reset = time.Unix(int64(reset), 0)
	}
}

// Exhaust marks endpoint as having no requests left until its reset
func (w *Window) Exhaust(endpoint string, header http.Header) {
	w.mu.Lock()
	defer w.mu.Unlock()

	q := w.quota(endpoint)
	q.remaining = 0
	if reset, ok := parseInt(header.Get(HeaderReset)); ok && time.Unix(int64(reset), 0).After(w.now()) {
		q.reset = time.Unix(int64(reset), 0)
	} else {
		q.reset = w.now().Add(w.fallback)
	}
}

// Allow reports whether a request to endpoint can proceed without waiting
func (w *Window) Allow(endpoint string) bool {
	return w.delay(endpoint) == 0
}

// Wait blocks until endpoint has quota again. It returns ctx.Err() if the context ends first.
func (w *Window) Wait(ctx context.Context, endpoint string) error {
	d := w.delay(endpoint)
	if d == 0 {
		return nil
	}

	if w.onWait != nil {
		w.onWait(endpoint, d)
	}
	if err := w.sleep(ctx, d); err != nil {
		return err
	}

	// the window is assumed fresh until the next response says otherwise
	w.mu.Lock()
	delete(w.quotas, endpoint)
	w.mu.Unlock()
	return nil
}

// Reset forgets every observed window
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.quotas = make(map[string]*quota)
}

// delay returns how long a request to endpoint must wait
func (w *Window) delay(endpoint string) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	q, ok := w.quotas[endpoint]
	if !ok || q.remaining > 0 {
		return 0
	}

	until := q.reset.Sub(w.now())
	if until <= 0 {
		return 0
	}
	return until + w.slack
}

func (w *Window) quota(endpoint string) *quota {
	q, ok := w.quotas[endpoint]
	if !ok {
		q = &quota{remaining: -1}
		w.quotas[endpoint] = q
	}
	return q
}

func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// sleepContext sleeps for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
