package domain

// Ledger is an append-only list of transactions in posting order. Totals are
// computed on read. It is not safe for concurrent use; the owner serializes
// access.
type Ledger struct {
	entries []Transaction
}

func NewLedger(entries []Transaction) *Ledger {
	copied := make([]Transaction, len(entries))
	copy(copied, entries)
	return &Ledger{entries: copied}
}

func (l *Ledger) Append(tx Transaction) {
	l.entries = append(l.entries, tx)
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a copy in posting order.
func (l *Ledger) Entries() []Transaction {
	out := make([]Transaction, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Ledger) Total() int64 {
	var total int64
	for _, tx := range l.entries {
		total += tx.SignedAmount()
	}
	return total
}

func (l *Ledger) Filter(f Filter) []Transaction {
	out := make([]Transaction, 0, len(l.entries))
	for _, tx := range l.entries {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

func (l *Ledger) Sum(f Filter) int64 {
	var total int64
	for _, tx := range l.entries {
		if f.Match(tx) {
			total += tx.SignedAmount()
		}
	}
	return total
}

// Recent returns up to n entries, newest first. n <= 0 returns all of them.
func (l *Ledger) Recent(n int) []Transaction {
	size := len(l.entries)
	if n <= 0 || n > size {
		n = size
	}
	out := make([]Transaction, 0, n)
	for i := size - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}
