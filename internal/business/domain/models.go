package domain

import (
	"strings"
)

type Currency string

const (
	CurrencyMGA Currency = "MGA"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

var currencySymbols = map[Currency]string{
	CurrencyMGA: "Ar",
	CurrencyUSD: "$",
	CurrencyEUR: "€",
}

// ParseCurrency accepts either the ISO code or the display symbol.
func ParseCurrency(raw string) (Currency, bool) {
	value := strings.TrimSpace(raw)
	upper := Currency(strings.ToUpper(value))
	if _, ok := currencySymbols[upper]; ok {
		return upper, true
	}
	for code, symbol := range currencySymbols {
		if value == symbol {
			return code, true
		}
	}
	return "", false
}

func (c Currency) Symbol() string {
	if symbol, ok := currencySymbols[c]; ok {
		return symbol
	}
	return string(c)
}

func (c Currency) Valid() bool {
	_, ok := currencySymbols[c]
	return ok
}

// BusinessConfig is the lounge's identity and price table. It is a singleton.
type BusinessConfig struct {
	Name             string   `json:"name"`
	Owner            string   `json:"owner"`
	OwnerPhoto       string   `json:"ownerPhoto"`
	Logo             string   `json:"logo"`
	Address          string   `json:"address"`
	Phone            string   `json:"phone"`
	Email            string   `json:"email"`
	NIF              string   `json:"nif"`
	STAT             string   `json:"stat"`
	CyberPricePerMin int64    `json:"cyberPricePerMin"`
	GamePricePerMin  int64    `json:"gamePricePerMin"`
	Currency         Currency `json:"currency"`
	IsConfigured     bool     `json:"isConfigured"`
}

// Default returns the unconfigured record used on first start or when the
// persisted copy is unreadable.
func Default() BusinessConfig {
	return BusinessConfig{
		CyberPricePerMin: 100,
		GamePricePerMin:  200,
		Currency:         CurrencyMGA,
		IsConfigured:     false,
	}
}

// Normalize repairs fields that an older or hand-edited record may lack.
func (b BusinessConfig) Normalize() BusinessConfig {
	defaults := Default()
	if b.CyberPricePerMin <= 0 {
		b.CyberPricePerMin = defaults.CyberPricePerMin
	}
	if b.GamePricePerMin <= 0 {
		b.GamePricePerMin = defaults.GamePricePerMin
	}
	if currency, ok := ParseCurrency(string(b.Currency)); ok {
		b.Currency = currency
	} else {
		b.Currency = defaults.Currency
	}
	return b
}
