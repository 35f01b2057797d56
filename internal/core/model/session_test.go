package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anchor = time.UnixMilli(1_773_478_800_000)

func runningSession(duration time.Duration) Session {
	return Session{
		Topic:        "Math",
		StartInstant: anchor,
		Duration:     duration,
		Running:      true,
		Active:       true,
	}
}

func TestRemainingAtFollowsAnchor(t *testing.T) {
	session := runningSession(5 * time.Second)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    time.Duration
	}{
		{"at anchor", 0, 5 * time.Second},
		{"partway", 3 * time.Second, 2 * time.Second},
		{"exactly done", 5 * time.Second, 0},
		{"long after", time.Hour, 0},
		{"clock behind anchor", -10 * time.Second, 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, session.RemainingAt(anchor.Add(tt.elapsed)))
		})
	}
}

func TestRemainingAtIsMonotonic(t *testing.T) {
	session := runningSession(90 * time.Second)
	previous := session.RemainingAt(anchor)
	for elapsed := time.Duration(0); elapsed <= 2*time.Minute; elapsed += 7 * time.Second {
		current := session.RemainingAt(anchor.Add(elapsed))
		assert.LessOrEqual(t, current, previous)
		assert.Equal(t, max(0, 90*time.Second-elapsed), current)
		previous = current
	}
}

func TestRemainingAtPausedIgnoresClock(t *testing.T) {
	session := runningSession(40 * time.Second)
	session.Running = false

	assert.Equal(t, 40*time.Second, session.RemainingAt(anchor.Add(time.Hour)))
}

func TestRemainingAtIdleIsZero(t *testing.T) {
	assert.Equal(t, time.Duration(0), Idle().RemainingAt(anchor))
}

func TestSnapshotRoundTrip(t *testing.T) {
	original := runningSession(25 * time.Minute)

	data, err := EncodeSnapshot(SnapshotOf(original))
	require.NoError(t, err)
	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	restored, err := decoded.Session()
	require.NoError(t, err)

	assert.Equal(t, original.Topic, restored.Topic)
	assert.True(t, original.StartInstant.Equal(restored.StartInstant))
	assert.Equal(t, original.Duration, restored.Duration)
	assert.Equal(t, original.Running, restored.Running)
	assert.Equal(t, original.Active, restored.Active)
}

func TestSnapshotWireFormat(t *testing.T) {
	data, err := EncodeSnapshot(SnapshotOf(runningSession(time.Minute)))
	require.NoError(t, err)

	assert.JSONEq(t, `{"topic":"Math","active":true,"running":true,"startInstant":1773478800000,"durationSeconds":60}`, string(data))

	data, err = EncodeSnapshot(SnapshotOf(Idle()))
	require.NoError(t, err)
	assert.JSONEq(t, `{"topic":"","active":false,"running":false,"startInstant":null,"durationSeconds":0}`, string(data))
}

func TestDecodeSnapshotCorrupt(t *testing.T) {
	payloads := map[string]string{
		"garbage":          `{not json`,
		"missing anchor":   `{"topic":"Bio","active":true,"running":true,"startInstant":null,"durationSeconds":60}`,
		"zero anchor":      `{"topic":"Bio","active":true,"running":true,"startInstant":0,"durationSeconds":60}`,
		"blank topic":      `{"topic":"  ","active":true,"running":true,"startInstant":1773478800000,"durationSeconds":60}`,
		"negative length":  `{"topic":"Bio","active":true,"running":true,"startInstant":1773478800000,"durationSeconds":-1}`,
		"wrong field type": `{"topic":"Bio","active":"yes"}`,
	}
	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(payload))
			var corrupt *CorruptStateError
			require.True(t, errors.As(err, &corrupt), "got %v", err)
		})
	}
}

func TestInactiveSnapshotDecodesToIdle(t *testing.T) {
	snapshot, err := DecodeSnapshot([]byte(`{"topic":"stale","active":false,"running":true,"startInstant":1773478800000,"durationSeconds":60}`))
	require.NoError(t, err)

	session, err := snapshot.Session()
	require.NoError(t, err)
	assert.Equal(t, Idle(), session)
}

func TestPausedSnapshotKeepsWholeSeconds(t *testing.T) {
	tests := []struct {
		name      string
		remaining time.Duration
		want      int64
	}{
		{"floors partial second", 40*time.Second + 700*time.Millisecond, 40},
		{"keeps one second minimum", 400 * time.Millisecond, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := runningSession(tt.remaining)
			session.Running = false

			snapshot := SnapshotOf(session)

			assert.Equal(t, tt.want, snapshot.DurationSeconds)
			restored, err := snapshot.Session()
			require.NoError(t, err)
			assert.False(t, restored.Running)
			assert.True(t, restored.Active)
		})
	}
}
