package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type ReceiptData struct {
	Header        Header
	Title         string
	ReceiptNumber string
	IssueDate     string
	ClientName    string

	Items []ReceiptItem
	Total string
}

type ReceiptItem struct {
	Description string
	Qty         int64
	UnitPrice   string
	Amount      string
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, receipt ReceiptData) (io.Reader, error) {
	if receipt.ReceiptNumber == "" {
		return nil, fmt.Errorf("receipt number is required")
	}
	title := receipt.Title
	if title == "" {
		title = "FACTURE"
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} / {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(6, receipt.Header.Name, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(6, title, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New(receipt.Header.Address, props.Text{Top: 0}),
			text.New(receipt.Header.Phone, props.Text{Top: 4}),
			text.New(receipt.Header.Email, props.Text{Top: 8}),
			text.New("NIF: "+receipt.Header.NIF, props.Text{Top: 14, Size: 8}),
			text.New("STAT: "+receipt.Header.STAT, props.Text{Top: 18, Size: 8}),
		),
		col.New(6).Add(
			text.New("N°: "+receipt.ReceiptNumber, props.Text{Align: align.Right}),
			text.New("Date: "+receipt.IssueDate, props.Text{Top: 4, Align: align.Right}),
			text.New("Client: "+receipt.ClientName, props.Text{Top: 8, Align: align.Right, Style: fontstyle.Bold}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Désignation", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qté", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "P.U.", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Montant", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range receipt.Items {
		m.AddRow(12,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(12,
		col.New(8),
		text.NewCol(2, "TOTAL", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, receipt.Total, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	m.AddRow(15,
		text.NewCol(12, "Merci de votre visite !", props.Text{Size: 9, Top: 6, Align: align.Center}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
