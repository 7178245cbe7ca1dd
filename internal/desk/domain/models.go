package domain

import (
	"errors"

	businessdomain "github.com/smallbiznis/cyberdesk/internal/business/domain"
	ledgerdomain "github.com/smallbiznis/cyberdesk/internal/ledger/domain"
	sessiondomain "github.com/smallbiznis/cyberdesk/internal/session/domain"
)

const (
	RecentTransactionsLimit = 8
	RecentFinishedLimit     = 10
)

var (
	ErrNotConfigured  = errors.New("not_configured")
	ErrSessionActive  = errors.New("session_still_active")
	ErrInvalidKind    = errors.New("invalid_receipt_kind")
	ErrInvalidRequest = errors.New("invalid_request")
)

type ActiveCounts struct {
	Total int `json:"total"`
	Cyber int `json:"cyber"`
	Game  int `json:"game"`
}

// Dashboard is the home screen read model.
type Dashboard struct {
	Currency            businessdomain.Currency    `json:"currency"`
	TotalRevenue        int64                      `json:"total_revenue"`
	TotalRevenueDisplay string                     `json:"total_revenue_display"`
	ActiveSessions      ActiveCounts               `json:"active_sessions"`
	SubscriptionCount   int                        `json:"subscription_count"`
	OrderCount          int                        `json:"order_count"`
	OrderRevenue        int64                      `json:"order_revenue"`
	TransactionCount    int                        `json:"transaction_count"`
	RecentTransactions  []ledgerdomain.Transaction `json:"recent_transactions"`
	RecentFinishedCyber []sessiondomain.Session    `json:"recent_finished_cyber"`
	RecentFinishedGame  []sessiondomain.Session    `json:"recent_finished_game"`
}

// Statement is the cash register report: every transaction in posting order
// with the running balance.
type Statement struct {
	Business     businessdomain.BusinessConfig `json:"business"`
	Transactions []ledgerdomain.Transaction    `json:"transactions"`
	Total        int64                         `json:"total"`
}
