package domain

import (
	"errors"
	"time"
)

// TransactionType is the direction of a cash movement.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

type SourceType string

const (
	SourceTypeSession      SourceType = "session"
	SourceTypeSubscription SourceType = "subscription"
	SourceTypeOrder        SourceType = "order"
)

// DateLayout is the fixed day/month/year layout of Transaction.Date.
const DateLayout = "02/01/2006 15:04:05"

// Transaction is an immutable cash ledger line.
type Transaction struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      int64           `json:"amount"`
	Type        TransactionType `json:"type"`
	Source      SourceType      `json:"source,omitempty"`
	SourceID    string          `json:"sourceId,omitempty"`
	OccurredAt  int64           `json:"occurredAt,omitempty"`
}

func (t Transaction) Occurred() time.Time {
	return time.UnixMilli(t.OccurredAt)
}

// SignedAmount is positive for income and negative for expenses.
func (t Transaction) SignedAmount() int64 {
	if t.Type == TransactionTypeExpense && t.Amount > 0 {
		return -t.Amount
	}
	return t.Amount
}

type EntryRequest struct {
	Description string
	Amount      int64
	Type        TransactionType
	Source      SourceType
	SourceID    string
	OccurredAt  time.Time
}

type Filter struct {
	Type   TransactionType
	Source SourceType
	From   *time.Time
	To     *time.Time
}

func (f Filter) Match(tx Transaction) bool {
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.Source != "" && tx.Source != f.Source {
		return false
	}
	if f.From != nil && tx.OccurredAt < f.From.UnixMilli() {
		return false
	}
	if f.To != nil && tx.OccurredAt > f.To.UnixMilli() {
		return false
	}
	return true
}

var (
	ErrInvalidDescription = errors.New("invalid_description")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidType        = errors.New("invalid_transaction_type")
	ErrInvalidOccurredAt  = errors.New("invalid_occurred_at")
)
