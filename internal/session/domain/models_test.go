package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newSession(start time.Time, minutes int64) Session {
	return Session{
		ID:              "SESS-1",
		Type:            TypeCyber,
		ClientName:      "Rino",
		DurationMinutes: minutes,
		StartTime:       start.UnixMilli(),
		IsActive:        true,
	}
}

func TestRemainingSeconds_RecomputedFromStart(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := newSession(start, 30)

	assert.Equal(t, int64(1800), s.RemainingSeconds(start))
	assert.Equal(t, int64(1799), s.RemainingSeconds(start.Add(1500*time.Millisecond)))
	assert.Equal(t, int64(1200), s.RemainingSeconds(start.Add(10*time.Minute)))
	assert.Equal(t, int64(0), s.RemainingSeconds(start.Add(30*time.Minute)))
	assert.Equal(t, int64(0), s.RemainingSeconds(start.Add(2*time.Hour)))
}

func TestRemainingSeconds_MonotonicRegardlessOfSampling(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := newSession(start, 2)

	previous := s.RemainingSeconds(start)
	now := start
	steps := []time.Duration{time.Millisecond, 700 * time.Millisecond, 3 * time.Second, 0, 59 * time.Second, 250 * time.Millisecond, time.Minute}
	for _, step := range steps {
		now = now.Add(step)
		current := s.RemainingSeconds(now)
		assert.LessOrEqual(t, current, previous)
		previous = current
	}
	assert.Equal(t, int64(0), s.RemainingSeconds(start.Add(120*time.Second)))
}

func TestRemainingSeconds_ClockSkewClampsToDuration(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := newSession(start, 15)

	assert.Equal(t, int64(900), s.RemainingSeconds(start.Add(-5*time.Minute)))
	assert.Equal(t, 1.0, s.Progress(start.Add(-time.Second)))
}

func TestZeroDurationExpiresImmediately(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := newSession(start, 0)

	assert.True(t, s.Expired(start))
	assert.Equal(t, int64(0), s.RemainingSeconds(start))
	assert.Equal(t, 0.0, s.Progress(start))

	negative := newSession(start, -3)
	assert.True(t, negative.Expired(start))
}

func TestDurationIsBounded(t *testing.T) {
	assert.True(t, ValidDuration(1))
	assert.True(t, ValidDuration(MaxDurationMinutes))
	assert.False(t, ValidDuration(0))
	assert.False(t, ValidDuration(MaxDurationMinutes+1))
	assert.False(t, ValidDuration(1<<62))

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := Session{DurationMinutes: 1 << 62, StartTime: start.UnixMilli(), IsActive: true}
	assert.Equal(t, MaxDurationMinutes*60, s.TotalSeconds())
	assert.Equal(t, MaxDurationMinutes*60, s.RemainingSeconds(start))
	assert.False(t, s.Expired(start))
	assert.True(t, s.EndsAt().After(start))
}

func TestProgress(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := newSession(start, 10)
	assert.InDelta(t, 0.5, s.Progress(start.Add(5*time.Minute)), 1e-9)
	assert.Equal(t, start.Add(10*time.Minute).UnixMilli(), s.EndsAt().UnixMilli())
}

func TestFinishIsOneShot(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := newSession(start, 10)

	assert.True(t, s.Finish(start.Add(time.Minute), FinishReasonManual))
	assert.False(t, s.IsActive)
	assert.True(t, s.IsFinished)
	assert.True(t, s.Completed)

	assert.False(t, s.Finish(start.Add(2*time.Minute), FinishReasonExpired))
	assert.Equal(t, FinishReasonManual, s.FinishReason)
	assert.Equal(t, start.Add(time.Minute).UnixMilli(), s.FinishedAt)
}

func TestParseTypeAndFormatClock(t *testing.T) {
	typ, ok := ParseType(" game ")
	assert.True(t, ok)
	assert.Equal(t, TypeGame, typ)

	_, ok = ParseType("console")
	assert.False(t, ok)

	assert.Equal(t, "29:59", FormatClock(1799))
	assert.Equal(t, "90:00", FormatClock(5400))
	assert.Equal(t, "00:00", FormatClock(-4))
}
