package timer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/smallbiznis/cyberdesk/internal/clock"
	"github.com/smallbiznis/cyberdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/cyberdesk/internal/observability/metrics"
	sessiondomain "github.com/smallbiznis/cyberdesk/internal/session/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ExpiryFunc is called once when a tracked session's countdown reaches zero.
type ExpiryFunc func(ctx context.Context, sessionID string) error

// TickFunc observes every recomputation of a tracked session.
type TickFunc func(ctx context.Context, tick Tick)

type Tick struct {
	Session   sessiondomain.Session
	Now       time.Time
	Remaining int64
}

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	Alarm      Alarm
	Config     Config                   `optional:"true"`
	ObsMetrics *obsmetrics.Metrics      `optional:"true"`
	Stats      *obsmetrics.TimerMetrics `optional:"true"`
}

// Engine runs one countdown goroutine per active session. Remaining time is
// always derived from the session's absolute start, so a late or skipped tick
// never accumulates drift.
type Engine struct {
	log        *zap.Logger
	clock      clock.Clock
	alarm      Alarm
	cfg        Config
	obsMetrics *obsmetrics.Metrics
	stats      *obsmetrics.TimerMetrics

	mu       sync.Mutex
	tracked  map[string]*tracker
	onExpire ExpiryFunc
	onTick   TickFunc
	stopped  bool

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type tracker struct {
	// session.Completed is the one-shot guard for the expiry effect.
	session sessiondomain.Session
	cancel  context.CancelFunc
}

var ErrEngineStopped = errors.New("timer_engine_stopped")

func New(p Params) *Engine {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	alarm := p.Alarm
	if alarm == nil {
		alarm = NoopAlarm{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		log:        log.Named("session.timer"),
		clock:      p.Clock,
		alarm:      alarm,
		cfg:        p.Config.withDefaults(),
		obsMetrics: p.ObsMetrics,
		stats:      p.Stats,
		tracked:    make(map[string]*tracker),
		baseCtx:    ctx,
		cancel:     cancel,
	}
}

func (e *Engine) SetExpiryHandler(fn ExpiryFunc) {
	e.mu.Lock()
	e.onExpire = fn
	e.mu.Unlock()
}

func (e *Engine) SetTickHandler(fn TickFunc) {
	e.mu.Lock()
	e.onTick = fn
	e.mu.Unlock()
}

// Track starts the countdown of an active session. The first recomputation
// happens before Track returns control to the scheduler, so an already
// expired session completes without waiting a full interval. Tracking the
// same session twice is a no-op.
func (e *Engine) Track(session sessiondomain.Session) error {
	if !session.IsActive || session.IsFinished || session.Completed {
		return nil
	}

	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrEngineStopped
	}
	if _, exists := e.tracked[session.ID]; exists {
		e.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(e.baseCtx)
	e.tracked[session.ID] = &tracker{session: session, cancel: cancel}
	e.wg.Add(1)
	e.stats.SetTracked(len(e.tracked))
	e.mu.Unlock()

	e.log.Debug("session tracked",
		zap.String("session_id", session.ID),
		zap.Int64("duration_minutes", session.DurationMinutes),
	)

	go e.run(ctx, session.ID)
	return nil
}

// Untrack cancels a session's countdown without firing its expiry effect. It
// does not wait for the goroutine, so it is safe to call from the expiry
// handler itself.
func (e *Engine) Untrack(sessionID string) {
	e.mu.Lock()
	t, ok := e.tracked[sessionID]
	if ok {
		delete(e.tracked, sessionID)
		e.stats.SetTracked(len(e.tracked))
	}
	e.mu.Unlock()

	if ok {
		t.cancel()
	}
}

func (e *Engine) IsTracked(sessionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.tracked[sessionID]
	return ok
}

func (e *Engine) TrackedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tracked)
}

// Stop cancels every countdown and waits for the goroutines to exit.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	e.stopped = true
	for id, t := range e.tracked {
		t.cancel()
		delete(e.tracked, id)
	}
	e.stats.SetTracked(0)
	e.mu.Unlock()
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) run(ctx context.Context, sessionID string) {
	defer e.wg.Done()

	if e.tick(ctx, sessionID) {
		return
	}

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if e.tick(ctx, sessionID) {
				return
			}
		}
	}
}

// tick recomputes one session and reports whether its goroutine should exit.
func (e *Engine) tick(ctx context.Context, sessionID string) bool {
	if ctx.Err() != nil {
		return true
	}

	e.mu.Lock()
	t, ok := e.tracked[sessionID]
	if !ok {
		e.mu.Unlock()
		return true
	}
	now := e.clock.Now()
	remaining := t.session.RemainingSeconds(now)
	fire := remaining == 0 && !t.session.Completed
	if fire {
		t.session.Completed = true
	}
	snapshot := t.session
	onTick := e.onTick
	onExpire := e.onExpire
	e.mu.Unlock()

	e.stats.IncTick()
	if onTick != nil {
		onTick(ctx, Tick{Session: snapshot, Now: now, Remaining: remaining})
	}
	if remaining > 0 {
		return false
	}
	if fire {
		e.stats.ObserveExpiryLag(now.Sub(snapshot.EndsAt()))
		e.complete(ctx, snapshot, onExpire)
	}
	e.Untrack(sessionID)
	return true
}

func (e *Engine) complete(ctx context.Context, session sessiondomain.Session, onExpire ExpiryFunc) {
	// Finishing must outlive a concurrent Untrack of this goroutine.
	ctx = context.WithoutCancel(ctx)

	log := logger.WithSession(e.log, session.ID, string(session.Type)).
		With(zap.String("client_name", session.ClientName))
	if !e.IsTracked(session.ID) {
		log.Debug("session finished before expiry")
		return
	}
	result := obsmetrics.ExpiryResultFinished
	if err := e.alarm.Ring(ctx, session); err != nil {
		log.Warn("session alarm failed", zap.Error(err))
		e.obsMetrics.RecordAlarmFailure(ctx)
		result = obsmetrics.ExpiryResultAlarmFailed
	}

	if onExpire == nil {
		log.Warn("session expired without expiry handler")
		e.stats.IncExpiry(obsmetrics.ExpiryResultError)
		return
	}
	if err := onExpire(ctx, session.ID); err != nil {
		log.Error("finish expired session failed", zap.Error(err))
		e.stats.IncExpiry(obsmetrics.ExpiryResultError)
		return
	}
	e.stats.IncExpiry(result)
	log.Info("session expired")
}
