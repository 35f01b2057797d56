package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Clock whose time only moves when Advance or Set is called.
// Timers created with AfterFunc fire synchronously inside Advance, in due order.
// Tickers deliver at most one pending tick, like time.Ticker drops ticks for
// slow readers.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*manualTimer
	tickers []*manualTicker
}

// NewManual returns a Manual clock set to start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the clock's current time.
func (manual *Manual) Now() time.Time {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	return manual.now
}

// NewTicker registers a ticker that fires as Advance crosses each interval.
func (manual *Manual) NewTicker(interval time.Duration) Ticker {
	if interval <= 0 {
		panic("clock: non-positive ticker interval")
	}
	manual.mu.Lock()
	defer manual.mu.Unlock()
	ticker := &manualTicker{
		clock:    manual,
		interval: interval,
		next:     manual.now.Add(interval),
		ch:       make(chan time.Time, 1),
	}
	manual.tickers = append(manual.tickers, ticker)
	return ticker
}

// AfterFunc registers fn to run once the clock reaches now+delay.
func (manual *Manual) AfterFunc(delay time.Duration, fn func()) Timer {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	timer := &manualTimer{clock: manual, due: manual.now.Add(delay), fn: fn}
	manual.timers = append(manual.timers, timer)
	return timer
}

// Advance moves the clock forward by delta and fires everything that became due.
func (manual *Manual) Advance(delta time.Duration) {
	manual.mu.Lock()
	target := manual.now.Add(delta)
	manual.mu.Unlock()
	manual.Set(target)
}

// Set moves the clock to instant. Moving backwards fires nothing.
func (manual *Manual) Set(instant time.Time) {
	manual.mu.Lock()
	manual.now = instant

	var due []*manualTimer
	pending := manual.timers[:0]
	for _, timer := range manual.timers {
		if !timer.due.After(instant) {
			due = append(due, timer)
			continue
		}
		pending = append(pending, timer)
	}
	manual.timers = pending

	for _, ticker := range manual.tickers {
		if ticker.next.After(instant) {
			continue
		}
		for !ticker.next.After(instant) {
			ticker.next = ticker.next.Add(ticker.interval)
		}
		select {
		case ticker.ch <- instant:
		default:
		}
	}
	manual.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].due.Before(due[j].due) })
	for _, timer := range due {
		timer.fn()
	}
}

// PendingTimers reports how many AfterFunc timers are still armed.
func (manual *Manual) PendingTimers() int {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	return len(manual.timers)
}

// ActiveTickers reports how many tickers have not been stopped.
func (manual *Manual) ActiveTickers() int {
	manual.mu.Lock()
	defer manual.mu.Unlock()
	return len(manual.tickers)
}

type manualTimer struct {
	clock *Manual
	due   time.Time
	fn    func()
}

func (timer *manualTimer) Stop() bool {
	timer.clock.mu.Lock()
	defer timer.clock.mu.Unlock()
	for index, pending := range timer.clock.timers {
		if pending == timer {
			timer.clock.timers = append(timer.clock.timers[:index], timer.clock.timers[index+1:]...)
			return true
		}
	}
	return false
}

type manualTicker struct {
	clock    *Manual
	interval time.Duration
	next     time.Time
	ch       chan time.Time
}

func (ticker *manualTicker) C() <-chan time.Time { return ticker.ch }

func (ticker *manualTicker) Stop() {
	ticker.clock.mu.Lock()
	defer ticker.clock.mu.Unlock()
	for index, active := range ticker.clock.tickers {
		if active == ticker {
			ticker.clock.tickers = append(ticker.clock.tickers[:index], ticker.clock.tickers[index+1:]...)
			return
		}
	}
}
