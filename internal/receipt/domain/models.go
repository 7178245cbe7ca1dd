package domain

import (
	"errors"
	"time"

	"github.com/smallbiznis/cyberdesk/internal/billing"
	businessdomain "github.com/smallbiznis/cyberdesk/internal/business/domain"
	ledgerdomain "github.com/smallbiznis/cyberdesk/internal/ledger/domain"
)

const ReceiptTitle = "FACTURE"

// Document is a printable receipt. Its amounts are copied from the billing
// charge and never recomputed.
type Document struct {
	Title      string                        `json:"title"`
	Number     string                        `json:"number"`
	IssuedAt   time.Time                     `json:"issued_at"`
	Kind       billing.Kind                  `json:"kind"`
	SubjectID  string                        `json:"subject_id"`
	ClientName string                        `json:"client_name"`
	Business   businessdomain.BusinessConfig `json:"business"`
	Lines      []Line                        `json:"lines"`
	Total      int64                         `json:"total"`
}

type Line struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Amount      int64  `json:"amount"`
}

// StatementDocument is the printable cash register report.
type StatementDocument struct {
	IssuedAt     time.Time                     `json:"issued_at"`
	Business     businessdomain.BusinessConfig `json:"business"`
	Transactions []ledgerdomain.Transaction    `json:"transactions"`
	Total        int64                         `json:"total"`
}

type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

var ErrInvalidFormat = errors.New("invalid_receipt_format")

func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case "", FormatHTML:
		return FormatHTML, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", ErrInvalidFormat
	}
}
