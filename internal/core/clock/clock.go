package clock

import "time"

// Clock abstracts the wall clock and the timers built on it so the
// countdown can be driven deterministically in tests.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time
	// NewTicker returns a ticker delivering ticks every interval.
	NewTicker(interval time.Duration) Ticker
	// AfterFunc calls fn in its own goroutine once delay has elapsed.
	AfterFunc(delay time.Duration, fn func()) Timer
}

// Ticker is the subset of time.Ticker the engine needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Timer is the subset of time.Timer returned by AfterFunc.
type Timer interface {
	// Stop prevents the timer from firing and reports whether it was still pending.
	Stop() bool
}

// Real is the production Clock backed by the time package.
type Real struct{}

// Now returns time.Now.
func (Real) Now() time.Time { return time.Now() }

// NewTicker wraps time.NewTicker.
func (Real) NewTicker(interval time.Duration) Ticker {
	return &realTicker{inner: time.NewTicker(interval)}
}

// AfterFunc wraps time.AfterFunc.
func (Real) AfterFunc(delay time.Duration, fn func()) Timer {
	return time.AfterFunc(delay, fn)
}

type realTicker struct {
	inner *time.Ticker
}

func (ticker *realTicker) C() <-chan time.Time { return ticker.inner.C }
func (ticker *realTicker) Stop()               { ticker.inner.Stop() }
