package domain

import (
	"strings"
	"time"
)

type Type string

const (
	TypeCyber Type = "CYBER"
	TypeGame  Type = "GAME"
)

func ParseType(raw string) (Type, bool) {
	switch Type(strings.ToUpper(strings.TrimSpace(raw))) {
	case TypeCyber:
		return TypeCyber, true
	case TypeGame:
		return TypeGame, true
	default:
		return "", false
	}
}

// MaxDurationMinutes is the longest session that can be sold at once.
const MaxDurationMinutes int64 = 7 * 24 * 60

func ValidDuration(minutes int64) bool {
	return minutes > 0 && minutes <= MaxDurationMinutes
}

type FinishReason string

const (
	FinishReasonManual  FinishReason = "manual"
	FinishReasonExpired FinishReason = "expired"
)

// Session is one prepaid workstation rental. StartTime is a unix timestamp in
// milliseconds and never changes after creation. PricePerMin is the rate
// charged when the session was sold.
type Session struct {
	ID              string       `json:"id"`
	Type            Type         `json:"type"`
	ClientName      string       `json:"clientName"`
	DurationMinutes int64        `json:"durationMinutes"`
	StartTime       int64        `json:"startTime"`
	PricePerMin     int64        `json:"pricePerMin,omitempty"`
	IsActive        bool         `json:"isActive"`
	IsFinished      bool         `json:"isFinished"`
	Completed       bool         `json:"completed,omitempty"`
	FinishedAt      int64        `json:"finishedAt,omitempty"`
	FinishReason    FinishReason `json:"finishReason,omitempty"`
}

func (s Session) StartedAt() time.Time {
	return time.UnixMilli(s.StartTime)
}

// EndsAt is the planned end of the paid duration.
func (s Session) EndsAt() time.Time {
	return s.StartedAt().Add(time.Duration(s.TotalSeconds()) * time.Second)
}

func (s Session) TotalSeconds() int64 {
	if s.DurationMinutes <= 0 {
		return 0
	}
	return min(s.DurationMinutes, MaxDurationMinutes) * 60
}

// RemainingSeconds derives the countdown from the absolute start time. The
// result is clamped to [0, TotalSeconds] so clock skew never extends a session.
func (s Session) RemainingSeconds(now time.Time) int64 {
	total := s.TotalSeconds()
	elapsed := floorDiv(now.UnixMilli()-s.StartTime, 1000)
	remaining := total - elapsed
	if remaining < 0 {
		return 0
	}
	if remaining > total {
		return total
	}
	return remaining
}

// Progress is the remaining fraction of the paid duration.
func (s Session) Progress(now time.Time) float64 {
	total := s.TotalSeconds()
	if total == 0 {
		return 0
	}
	return float64(s.RemainingSeconds(now)) / float64(total)
}

func (s Session) Expired(now time.Time) bool {
	return s.RemainingSeconds(now) == 0
}

// Finish moves the session to its terminal state. It reports false when the
// session was already finished.
func (s *Session) Finish(at time.Time, reason FinishReason) bool {
	if s.IsFinished {
		return false
	}
	s.IsActive = false
	s.IsFinished = true
	s.Completed = true
	s.FinishedAt = at.UnixMilli()
	s.FinishReason = reason
	return true
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
