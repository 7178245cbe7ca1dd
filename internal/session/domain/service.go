package domain

import "errors"

type StartSessionRequest struct {
	Type            string
	ClientName      string
	DurationMinutes int64
}

// View is the live countdown state of one session.
type View struct {
	SessionID        string  `json:"session_id"`
	Type             Type    `json:"type"`
	ClientName       string  `json:"client_name"`
	DurationMinutes  int64   `json:"duration_minutes"`
	RemainingSeconds int64   `json:"remaining_seconds"`
	Display          string  `json:"display"`
	Progress         float64 `json:"progress"`
	Cost             int64   `json:"cost"`
	EndsAt           int64   `json:"ends_at"`
	Expired          bool    `json:"expired"`
	IsActive         bool    `json:"is_active"`
}

var (
	ErrInvalidType       = errors.New("invalid_session_type")
	ErrInvalidClientName = errors.New("invalid_client_name")
	ErrInvalidMinutes    = errors.New("invalid_minutes")
	ErrInvalidID         = errors.New("invalid_id")
	ErrNotFound          = errors.New("session_not_found")
)
