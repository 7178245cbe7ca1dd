package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

type Provider interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
	GenerateStatement(ctx context.Context, data StatementData) (io.Reader, error)
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

// Header is the business identity printed on every document.
type Header struct {
	Name    string
	Owner   string
	Address string
	Phone   string
	Email   string
	NIF     string
	STAT    string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}
