package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/cyberdesk/internal/ledger/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), GenID: node})
}

func TestPostAppendsTransaction(t *testing.T) {
	svc := newTestService(t)
	ledger := ledgerdomain.NewLedger(nil)
	at := time.Date(2025, 3, 1, 14, 5, 9, 0, time.UTC)

	tx, err := svc.Post(context.Background(), ledger, ledgerdomain.EntryRequest{
		Description: "  Session CYBER - Rino ",
		Amount:      3000,
		Source:      ledgerdomain.SourceTypeSession,
		SourceID:    "SESS-1",
		OccurredAt:  at,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(tx.ID, "TX-"))
	assert.Equal(t, "Session CYBER - Rino", tx.Description)
	assert.Equal(t, ledgerdomain.TransactionTypeIncome, tx.Type)
	assert.Equal(t, "01/03/2025 14:05:09", tx.Date)
	assert.Equal(t, at.UnixMilli(), tx.OccurredAt)
	assert.Equal(t, 1, ledger.Len())
	assert.Equal(t, int64(3000), ledger.Total())
}

func TestPostRejectsInvalidEntries(t *testing.T) {
	svc := newTestService(t)
	at := time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		req  ledgerdomain.EntryRequest
		err  error
	}{
		{"empty description", ledgerdomain.EntryRequest{Description: " ", Amount: 1, OccurredAt: at}, ledgerdomain.ErrInvalidDescription},
		{"negative amount", ledgerdomain.EntryRequest{Description: "x", Amount: -1, OccurredAt: at}, ledgerdomain.ErrInvalidAmount},
		{"unknown type", ledgerdomain.EntryRequest{Description: "x", Amount: 1, Type: "REFUND", OccurredAt: at}, ledgerdomain.ErrInvalidType},
		{"missing time", ledgerdomain.EntryRequest{Description: "x", Amount: 1}, ledgerdomain.ErrInvalidOccurredAt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := ledgerdomain.NewLedger(nil)
			_, err := svc.Post(context.Background(), ledger, tc.req)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, 0, ledger.Len())
		})
	}
}

func TestPostZeroAmountIsAllowed(t *testing.T) {
	svc := newTestService(t)
	ledger := ledgerdomain.NewLedger(nil)
	_, err := svc.Post(context.Background(), ledger, ledgerdomain.EntryRequest{
		Description: "Abonnement Mensuel - Naina",
		Amount:      0,
		OccurredAt:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), ledger.Total())
}
