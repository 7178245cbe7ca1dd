package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func tx(id string, amount int64, txType TransactionType, source SourceType, at time.Time) Transaction {
	return Transaction{
		ID:          id,
		Date:        at.Format(DateLayout),
		Description: id,
		Amount:      amount,
		Type:        txType,
		Source:      source,
		OccurredAt:  at.UnixMilli(),
	}
}

func TestLedgerTotalsAreSigned(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ledger := NewLedger([]Transaction{
		tx("TX-1", 3000, TransactionTypeIncome, SourceTypeSession, base),
		tx("TX-2", 500, TransactionTypeExpense, "", base.Add(time.Hour)),
		tx("TX-3", 25000, TransactionTypeIncome, SourceTypeSubscription, base.Add(2*time.Hour)),
	})

	assert.Equal(t, 3, ledger.Len())
	assert.Equal(t, int64(27500), ledger.Total())
	assert.Equal(t, int64(-500), ledger.Sum(Filter{Type: TransactionTypeExpense}))
	assert.Equal(t, int64(25000), ledger.Sum(Filter{Source: SourceTypeSubscription}))
}

func TestLedgerFilterByTimeRange(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ledger := NewLedger(nil)
	ledger.Append(tx("TX-1", 100, TransactionTypeIncome, SourceTypeOrder, base))
	ledger.Append(tx("TX-2", 200, TransactionTypeIncome, SourceTypeOrder, base.Add(24*time.Hour)))

	from := base.Add(time.Hour)
	matched := ledger.Filter(Filter{From: &from})
	if assert.Len(t, matched, 1) {
		assert.Equal(t, "TX-2", matched[0].ID)
	}

	to := base
	matched = ledger.Filter(Filter{To: &to})
	if assert.Len(t, matched, 1) {
		assert.Equal(t, "TX-1", matched[0].ID)
	}
}

func TestLedgerRecentAndCopies(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	seed := []Transaction{
		tx("TX-1", 1, TransactionTypeIncome, "", base),
		tx("TX-2", 2, TransactionTypeIncome, "", base),
		tx("TX-3", 3, TransactionTypeIncome, "", base),
	}
	ledger := NewLedger(seed)
	seed[0].Amount = 999

	recent := ledger.Recent(2)
	assert.Equal(t, []string{"TX-3", "TX-2"}, []string{recent[0].ID, recent[1].ID})
	assert.Len(t, ledger.Recent(0), 3)

	entries := ledger.Entries()
	entries[0].Amount = 42
	assert.Equal(t, int64(6), ledger.Total())
}
