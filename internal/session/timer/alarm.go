package timer

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/smallbiznis/cyberdesk/internal/config"
	sessiondomain "github.com/smallbiznis/cyberdesk/internal/session/domain"
	"go.uber.org/zap"
)

// Alarm is the audible signal played when a session runs out.
type Alarm interface {
	Ring(ctx context.Context, session sessiondomain.Session) error
}

type Tone struct {
	FrequencyHz int
	Offset      time.Duration
	Duration    time.Duration
}

// ExpiryChime is two short A5 beeps followed by a longer E6.
var ExpiryChime = []Tone{
	{FrequencyHz: 880, Offset: 0, Duration: 200 * time.Millisecond},
	{FrequencyHz: 880, Offset: 400 * time.Millisecond, Duration: 200 * time.Millisecond},
	{FrequencyHz: 1320, Offset: 800 * time.Millisecond, Duration: 500 * time.Millisecond},
}

// BellAlarm writes one terminal bell per chime tone.
type BellAlarm struct {
	mu sync.Mutex
	w  io.Writer
}

func NewBellAlarm(w io.Writer) *BellAlarm {
	if w == nil {
		w = os.Stdout
	}
	return &BellAlarm{w: w}
}

func (a *BellAlarm) Ring(ctx context.Context, _ sessiondomain.Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for range ExpiryChime {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.WriteString(a.w, "\a"); err != nil {
			return err
		}
	}
	return nil
}

type LogAlarm struct {
	log *zap.Logger
}

func NewLogAlarm(log *zap.Logger) *LogAlarm {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogAlarm{log: log.Named("session.alarm")}
}

func (a *LogAlarm) Ring(_ context.Context, session sessiondomain.Session) error {
	freqs := make([]int, 0, len(ExpiryChime))
	for _, tone := range ExpiryChime {
		freqs = append(freqs, tone.FrequencyHz)
	}
	a.log.Info("time is up",
		zap.String("session_id", session.ID),
		zap.String("client_name", session.ClientName),
		zap.String("type", string(session.Type)),
		zap.Ints("chime_hz", freqs),
	)
	return nil
}

type NoopAlarm struct{}

func (NoopAlarm) Ring(context.Context, sessiondomain.Session) error { return nil }

func NewAlarm(cfg Config, log *zap.Logger) Alarm {
	switch cfg.withDefaults().AlarmMode {
	case config.AlarmModeNone:
		return NoopAlarm{}
	case config.AlarmModeLog:
		return NewLogAlarm(log)
	default:
		return NewBellAlarm(os.Stdout)
	}
}
