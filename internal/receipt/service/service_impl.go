package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cyberdesk/internal/billing"
	businessdomain "github.com/smallbiznis/cyberdesk/internal/business/domain"
	"github.com/smallbiznis/cyberdesk/internal/clock"
	"github.com/smallbiznis/cyberdesk/internal/config"
	deskdomain "github.com/smallbiznis/cyberdesk/internal/desk/domain"
	"github.com/smallbiznis/cyberdesk/internal/providers/pdf"
	receiptdomain "github.com/smallbiznis/cyberdesk/internal/receipt/domain"
	"github.com/smallbiznis/cyberdesk/internal/receipt/format"
	"github.com/smallbiznis/cyberdesk/internal/receipt/render"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Source resolves what a receipt or statement is about.
type Source interface {
	Billable(ctx context.Context, kind billing.Kind, id string) (billing.Billable, billing.PriceTable, businessdomain.BusinessConfig, error)
	Statement() deskdomain.Statement
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Config   config.Config
	Clock    clock.Clock
	GenID    *snowflake.Node
	Source   Source
	Renderer render.Renderer
	PDF      pdf.Provider
}

type Service struct {
	log      *zap.Logger
	template string
	clock    clock.Clock
	genID    *snowflake.Node
	source   Source
	renderer render.Renderer
	pdf      pdf.Provider
}

func NewService(p Params) *Service {
	log := p.Log.Named("receipt.service")
	tpl := strings.TrimSpace(p.Config.ReceiptNumberTemplate)
	if err := format.ValidateTemplate(tpl); err != nil {
		log.Warn("invalid receipt number template, using default", zap.String("template", tpl), zap.Error(err))
		tpl = format.DefaultReceiptNumberTemplate
	}
	return &Service{
		log:      log,
		template: tpl,
		clock:    p.Clock,
		genID:    p.GenID,
		source:   p.Source,
		renderer: p.Renderer,
		pdf:      p.PDF,
	}
}

// Build assembles the receipt of one billable record from its billing charge.
func (s *Service) Build(ctx context.Context, kind billing.Kind, id string) (receiptdomain.Document, error) {
	billable, prices, business, err := s.source.Billable(ctx, kind, id)
	if err != nil {
		return receiptdomain.Document{}, err
	}
	charge, err := billing.Calculate(billable, prices)
	if err != nil {
		return receiptdomain.Document{}, err
	}
	return s.documentFor(billable, charge, business)
}

func (s *Service) documentFor(billable billing.Billable, charge billing.Charge, business businessdomain.BusinessConfig) (receiptdomain.Document, error) {
	issuedAt := s.clock.Now()
	number, err := format.FormatReceiptNumber(s.template, issuedAt, s.nextSeq())
	if err != nil {
		return receiptdomain.Document{}, err
	}
	return receiptdomain.Document{
		Title:      receiptdomain.ReceiptTitle,
		Number:     number,
		IssuedAt:   issuedAt,
		Kind:       billable.Kind,
		SubjectID:  billable.ID(),
		ClientName: billable.ClientName(),
		Business:   business,
		Lines: []receiptdomain.Line{{
			Description: charge.Description,
			Quantity:    charge.Quantity,
			UnitPrice:   charge.UnitPrice,
			Amount:      charge.Amount,
		}},
		Total: charge.Amount,
	}, nil
}

// nextSeq derives a display sequence from a snowflake id. Receipts are not
// persisted, so the sequence only needs to be distinct in practice.
func (s *Service) nextSeq() int64 {
	seq := s.genID.Generate().Int64() % 1_000_000
	if seq <= 0 {
		seq += 1_000_000 - 1
	}
	return seq
}

func (s *Service) RenderHTML(doc receiptdomain.Document) (string, error) {
	return s.renderer.RenderReceipt(doc)
}

func (s *Service) RenderPDF(ctx context.Context, doc receiptdomain.Document) ([]byte, error) {
	currency := doc.Business.Currency
	items := make([]pdf.ReceiptItem, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		items = append(items, pdf.ReceiptItem{
			Description: line.Description,
			Qty:         line.Quantity,
			UnitPrice:   billing.FormatAmount(line.UnitPrice, currency),
			Amount:      billing.FormatAmount(line.Amount, currency),
		})
	}
	reader, err := s.pdf.GenerateReceipt(ctx, pdf.ReceiptData{
		Header:        headerFrom(doc.Business),
		Title:         doc.Title,
		ReceiptNumber: doc.Number,
		IssueDate:     doc.IssuedAt.Format("02/01/2006"),
		ClientName:    doc.ClientName,
		Items:         items,
		Total:         billing.FormatAmount(doc.Total, currency),
	})
	if err != nil {
		return nil, fmt.Errorf("generate receipt pdf: %w", err)
	}
	return readAll(reader)
}

func (s *Service) BuildStatement() receiptdomain.StatementDocument {
	statement := s.source.Statement()
	return receiptdomain.StatementDocument{
		IssuedAt:     s.clock.Now(),
		Business:     statement.Business,
		Transactions: statement.Transactions,
		Total:        statement.Total,
	}
}

func (s *Service) RenderStatementHTML(doc receiptdomain.StatementDocument) (string, error) {
	return s.renderer.RenderStatement(doc)
}

func (s *Service) RenderStatementPDF(ctx context.Context, doc receiptdomain.StatementDocument) ([]byte, error) {
	currency := doc.Business.Currency
	rows := make([]pdf.StatementRow, 0, len(doc.Transactions))
	for _, tx := range doc.Transactions {
		rows = append(rows, pdf.StatementRow{
			Date:        tx.Date,
			Description: tx.Description,
			Amount:      billing.FormatAmount(tx.SignedAmount(), currency),
		})
	}
	reader, err := s.pdf.GenerateStatement(ctx, pdf.StatementData{
		Header:    headerFrom(doc.Business),
		IssueDate: doc.IssuedAt.Format("02/01/2006 15:04:05"),
		Rows:      rows,
		Total:     billing.FormatAmount(doc.Total, currency),
	})
	if err != nil {
		return nil, fmt.Errorf("generate statement pdf: %w", err)
	}
	return readAll(reader)
}

func headerFrom(b businessdomain.BusinessConfig) pdf.Header {
	return pdf.Header{
		Name:    b.Name,
		Owner:   b.Owner,
		Address: b.Address,
		Phone:   b.Phone,
		Email:   b.Email,
		NIF:     b.NIF,
		STAT:    b.STAT,
	}
}

func readAll(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, errors.New("empty pdf")
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
