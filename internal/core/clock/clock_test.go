package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestRealNow(t *testing.T) {
	before := time.Now()
	got := Real{}.Now()
	after := time.Now()

	assert.False(t, got.Before(before))
	assert.False(t, got.After(after))
}

func TestRealAfterFuncFires(t *testing.T) {
	fired := make(chan struct{})
	Real{}.AfterFunc(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("AfterFunc did not fire within 1s")
	}
}

func TestRealTickerStop(t *testing.T) {
	ticker := Real{}.NewTicker(time.Hour)
	ticker.Stop()

	select {
	case <-ticker.C():
		t.Fatal("stopped ticker delivered a tick")
	default:
	}
}

func TestManualAdvanceMovesNow(t *testing.T) {
	manual := NewManual(epoch)
	manual.Advance(90 * time.Second)

	assert.Equal(t, epoch.Add(90*time.Second), manual.Now())
}

func TestManualAfterFuncFiresOnceWhenDue(t *testing.T) {
	manual := NewManual(epoch)
	calls := 0
	manual.AfterFunc(10*time.Second, func() { calls++ })

	manual.Advance(9 * time.Second)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, manual.PendingTimers())

	manual.Advance(time.Second)
	assert.Equal(t, 1, calls)

	manual.Advance(time.Minute)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, manual.PendingTimers())
}

func TestManualAfterFuncStop(t *testing.T) {
	manual := NewManual(epoch)
	timer := manual.AfterFunc(time.Second, func() { t.Fatal("stopped timer fired") })

	require.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	manual.Advance(time.Minute)
}

func TestManualTimersFireInDueOrder(t *testing.T) {
	manual := NewManual(epoch)
	var order []string
	manual.AfterFunc(3*time.Second, func() { order = append(order, "late") })
	manual.AfterFunc(time.Second, func() { order = append(order, "early") })

	manual.Advance(5 * time.Second)

	assert.Equal(t, []string{"early", "late"}, order)
}

func TestManualTickerCoalescesTicks(t *testing.T) {
	manual := NewManual(epoch)
	ticker := manual.NewTicker(time.Second)

	manual.Advance(5 * time.Second)

	select {
	case tick := <-ticker.C():
		assert.Equal(t, epoch.Add(5*time.Second), tick)
	default:
		t.Fatal("expected a pending tick")
	}
	select {
	case <-ticker.C():
		t.Fatal("expected ticks to be coalesced")
	default:
	}
}

func TestManualTickerStop(t *testing.T) {
	manual := NewManual(epoch)
	ticker := manual.NewTicker(time.Second)
	require.Equal(t, 1, manual.ActiveTickers())

	ticker.Stop()
	manual.Advance(3 * time.Second)

	assert.Equal(t, 0, manual.ActiveTickers())
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker delivered a tick")
	default:
	}
}

func TestManualSetBackwardsFiresNothing(t *testing.T) {
	manual := NewManual(epoch)
	manual.AfterFunc(time.Second, func() { t.Fatal("timer fired on backwards move") })

	manual.Set(epoch.Add(-time.Hour))

	assert.Equal(t, epoch.Add(-time.Hour), manual.Now())
	assert.Equal(t, 1, manual.PendingTimers())
}
