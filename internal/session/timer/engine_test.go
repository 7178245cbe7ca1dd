package timer

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smallbiznis/cyberdesk/internal/clock"
	"github.com/smallbiznis/cyberdesk/internal/config"
	sessiondomain "github.com/smallbiznis/cyberdesk/internal/session/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingAlarm struct {
	calls atomic.Int32
	err   error
}

func (a *recordingAlarm) Ring(context.Context, sessiondomain.Session) error {
	a.calls.Add(1)
	return a.err
}

type expiryRecorder struct {
	mu    sync.Mutex
	calls map[string]int
	ctxOK bool
}

func newExpiryRecorder() *expiryRecorder {
	return &expiryRecorder{calls: map[string]int{}}
}

func (r *expiryRecorder) handle(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[id]++
	r.ctxOK = ctx.Err() == nil
	return nil
}

func (r *expiryRecorder) count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[id]
}

func newTestEngine(t *testing.T, clk clock.Clock, alarm Alarm) *Engine {
	t.Helper()
	engine := New(Params{
		Log:    zap.NewNop(),
		Clock:  clk,
		Alarm:  alarm,
		Config: Config{TickInterval: 5 * time.Millisecond},
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = engine.Stop(ctx)
	})
	return engine
}

func activeSession(id string, start time.Time, minutes int64) sessiondomain.Session {
	return sessiondomain.Session{
		ID:              id,
		Type:            sessiondomain.TypeGame,
		ClientName:      "Hery",
		DurationMinutes: minutes,
		StartTime:       start.UnixMilli(),
		IsActive:        true,
	}
}

func TestEngine_ExpiresOnceWhenClockPassesEnd(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(start)
	alarm := &recordingAlarm{}
	engine := newTestEngine(t, clk, alarm)
	rec := newExpiryRecorder()
	engine.SetExpiryHandler(rec.handle)

	require.NoError(t, engine.Track(activeSession("SESS-1", start, 1)))
	assert.True(t, engine.IsTracked("SESS-1"))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, rec.count("SESS-1"))

	clk.Advance(61 * time.Second)
	assert.Eventually(t, func() bool { return rec.count("SESS-1") == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return !engine.IsTracked("SESS-1") }, time.Second, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, rec.count("SESS-1"))
	assert.Equal(t, int32(1), alarm.calls.Load())
	assert.True(t, rec.ctxOK)
}

func TestEngine_AlreadyExpiredSessionCompletesImmediately(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(start.Add(3 * time.Hour))
	engine := newTestEngine(t, clk, &recordingAlarm{})
	rec := newExpiryRecorder()
	engine.SetExpiryHandler(rec.handle)

	require.NoError(t, engine.Track(activeSession("SESS-OLD", start, 60)))

	assert.Eventually(t, func() bool { return rec.count("SESS-OLD") == 1 }, time.Second, 5*time.Millisecond)
}

func TestEngine_ZeroDurationExpiresWithoutWaiting(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(start)
	engine := newTestEngine(t, clk, &recordingAlarm{})
	rec := newExpiryRecorder()
	engine.SetExpiryHandler(rec.handle)

	require.NoError(t, engine.Track(activeSession("SESS-0", start, 0)))

	assert.Eventually(t, func() bool { return rec.count("SESS-0") == 1 }, time.Second, 5*time.Millisecond)
}

func TestEngine_UntrackPreventsExpiry(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(start)
	engine := newTestEngine(t, clk, &recordingAlarm{})
	rec := newExpiryRecorder()
	engine.SetExpiryHandler(rec.handle)

	require.NoError(t, engine.Track(activeSession("SESS-2", start, 1)))
	engine.Untrack("SESS-2")
	assert.False(t, engine.IsTracked("SESS-2"))

	clk.Advance(2 * time.Minute)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, rec.count("SESS-2"))
}

func TestEngine_ManualFinishOnExpiringTickSkipsAlarm(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(start)
	alarm := &recordingAlarm{}
	engine := newTestEngine(t, clk, alarm)
	rec := newExpiryRecorder()
	engine.SetExpiryHandler(rec.handle)

	var manualFinishes atomic.Int32
	engine.SetTickHandler(func(_ context.Context, tick Tick) {
		if tick.Remaining == 0 {
			// The operator finishes the session while the engine sees it expire.
			engine.Untrack(tick.Session.ID)
			manualFinishes.Add(1)
		}
	})

	require.NoError(t, engine.Track(activeSession("SESS-5", start, 1)))
	clk.Advance(61 * time.Second)

	assert.Eventually(t, func() bool { return manualFinishes.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return !engine.IsTracked("SESS-5") }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), alarm.calls.Load())
	assert.Equal(t, 0, rec.count("SESS-5"))
}

func TestEngine_TrackIgnoresFinishedAndDuplicates(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(start)
	engine := newTestEngine(t, clk, &recordingAlarm{})

	finished := activeSession("SESS-F", start, 10)
	finished.Finish(start, sessiondomain.FinishReasonManual)
	require.NoError(t, engine.Track(finished))
	assert.False(t, engine.IsTracked("SESS-F"))

	require.NoError(t, engine.Track(activeSession("SESS-3", start, 10)))
	require.NoError(t, engine.Track(activeSession("SESS-3", start, 10)))
	assert.Equal(t, 1, engine.TrackedCount())
}

func TestEngine_AlarmFailureStillFinishes(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(start.Add(time.Hour))
	alarm := &recordingAlarm{err: errors.New("no audio device")}
	engine := newTestEngine(t, clk, alarm)
	rec := newExpiryRecorder()
	engine.SetExpiryHandler(rec.handle)

	require.NoError(t, engine.Track(activeSession("SESS-4", start, 5)))

	assert.Eventually(t, func() bool { return rec.count("SESS-4") == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), alarm.calls.Load())
}

func TestEngine_TickReportsRemainingFromStart(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(start.Add(90 * time.Second))
	engine := newTestEngine(t, clk, &recordingAlarm{})

	var last atomic.Int64
	last.Store(-1)
	engine.SetTickHandler(func(_ context.Context, tick Tick) {
		last.Store(tick.Remaining)
	})

	require.NoError(t, engine.Track(activeSession("SESS-5", start, 5)))
	assert.Eventually(t, func() bool { return last.Load() == 210 }, time.Second, 5*time.Millisecond)

	clk.Advance(30 * time.Second)
	assert.Eventually(t, func() bool { return last.Load() == 180 }, time.Second, 5*time.Millisecond)
}

func TestEngine_StopRejectsNewSessions(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(start)
	engine := newTestEngine(t, clk, &recordingAlarm{})

	require.NoError(t, engine.Track(activeSession("SESS-6", start, 10)))
	require.NoError(t, engine.Stop(context.Background()))

	assert.Equal(t, 0, engine.TrackedCount())
	assert.ErrorIs(t, engine.Track(activeSession("SESS-7", start, 10)), ErrEngineStopped)
}

func TestBellAlarm_WritesOneBellPerTone(t *testing.T) {
	var buf bytes.Buffer
	alarm := NewBellAlarm(&buf)

	require.NoError(t, alarm.Ring(context.Background(), sessiondomain.Session{ID: "SESS-1"}))
	assert.Equal(t, "\a\a\a", buf.String())
	assert.Len(t, ExpiryChime, 3)
	assert.Equal(t, 1320, ExpiryChime[2].FrequencyHz)
}

func TestNewAlarm_SelectsDriver(t *testing.T) {
	assert.IsType(t, NoopAlarm{}, NewAlarm(Config{AlarmMode: config.AlarmModeNone}, zap.NewNop()))
	assert.IsType(t, &LogAlarm{}, NewAlarm(Config{AlarmMode: config.AlarmModeLog}, zap.NewNop()))
	assert.IsType(t, &BellAlarm{}, NewAlarm(Config{}, zap.NewNop()))
}
