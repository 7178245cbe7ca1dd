package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/cyberdesk/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/cyberdesk/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	genID      *snowflake.Node
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		log:        p.Log.Named("ledger.service"),
		genID:      p.GenID,
		obsMetrics: p.ObsMetrics,
	}
}

// Post validates req, appends the resulting transaction to ledger and returns it.
func (s *Service) Post(ctx context.Context, ledger *ledgerdomain.Ledger, req ledgerdomain.EntryRequest) (ledgerdomain.Transaction, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return ledgerdomain.Transaction{}, ledgerdomain.ErrInvalidDescription
	}
	if req.Amount < 0 {
		return ledgerdomain.Transaction{}, ledgerdomain.ErrInvalidAmount
	}
	txType := req.Type
	if txType == "" {
		txType = ledgerdomain.TransactionTypeIncome
	}
	if txType != ledgerdomain.TransactionTypeIncome && txType != ledgerdomain.TransactionTypeExpense {
		return ledgerdomain.Transaction{}, ledgerdomain.ErrInvalidType
	}
	if req.OccurredAt.IsZero() {
		return ledgerdomain.Transaction{}, ledgerdomain.ErrInvalidOccurredAt
	}

	tx := ledgerdomain.Transaction{
		ID:          "TX-" + s.genID.Generate().String(),
		Date:        req.OccurredAt.Format(ledgerdomain.DateLayout),
		Description: description,
		Amount:      req.Amount,
		Type:        txType,
		Source:      req.Source,
		SourceID:    req.SourceID,
		OccurredAt:  req.OccurredAt.UnixMilli(),
	}
	ledger.Append(tx)

	s.log.Debug("ledger entry posted",
		zap.String("transaction_id", tx.ID),
		zap.String("source_type", string(tx.Source)),
		zap.String("source_id", tx.SourceID),
		zap.Int64("amount", tx.Amount),
	)
	if s.obsMetrics != nil {
		s.obsMetrics.RecordLedgerEntry(ctx, string(tx.Source))
	}
	return tx, nil
}
