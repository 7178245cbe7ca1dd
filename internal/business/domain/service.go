package domain

import (
	"errors"
	"strings"
)

// ConfigureRequest carries the three wizard steps in one submission.
type ConfigureRequest struct {
	Owner      string
	OwnerPhoto string

	Name    string
	Logo    string
	Address string
	Phone   string
	Email   string
	NIF     string
	STAT    string

	CyberPricePerMin int64
	GamePricePerMin  int64
	Currency         string
}

var (
	ErrInvalidOwner    = errors.New("invalid_owner")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPrice    = errors.New("invalid_price_per_min")
	ErrInvalidCurrency = errors.New("invalid_currency")
)

// Apply validates req against the wizard rules and returns the configured record.
func Apply(current BusinessConfig, req ConfigureRequest) (BusinessConfig, error) {
	owner := strings.TrimSpace(req.Owner)
	if owner == "" {
		return BusinessConfig{}, ErrInvalidOwner
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return BusinessConfig{}, ErrInvalidName
	}
	if req.CyberPricePerMin <= 0 || req.GamePricePerMin <= 0 {
		return BusinessConfig{}, ErrInvalidPrice
	}
	currency, ok := ParseCurrency(req.Currency)
	if !ok {
		return BusinessConfig{}, ErrInvalidCurrency
	}

	next := current
	next.Owner = owner
	next.OwnerPhoto = strings.TrimSpace(req.OwnerPhoto)
	next.Name = name
	next.Logo = strings.TrimSpace(req.Logo)
	next.Address = strings.TrimSpace(req.Address)
	next.Phone = strings.TrimSpace(req.Phone)
	next.Email = strings.TrimSpace(req.Email)
	next.NIF = strings.TrimSpace(req.NIF)
	next.STAT = strings.TrimSpace(req.STAT)
	next.CyberPricePerMin = req.CyberPricePerMin
	next.GamePricePerMin = req.GamePricePerMin
	next.Currency = currency
	next.IsConfigured = true
	return next, nil
}
