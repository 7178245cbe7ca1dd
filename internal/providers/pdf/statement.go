package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type StatementData struct {
	Header    Header
	IssueDate string
	Rows      []StatementRow
	Total     string
}

type StatementRow struct {
	Date        string
	Description string
	Amount      string
}

func (p *PDFProvider) GenerateStatement(ctx context.Context, statement StatementData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} / {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(15,
		text.NewCol(12, "Relevé de Caisse", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	m.AddRow(20,
		col.New(6).Add(
			text.New(statement.Header.Name, props.Text{Style: fontstyle.Bold}),
			text.New(statement.Header.Address, props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New("NIF: "+statement.Header.NIF, props.Text{Align: align.Right, Size: 8}),
			text.New("STAT: "+statement.Header.STAT, props.Text{Top: 4, Align: align.Right, Size: 8}),
			text.New("Édité le "+statement.IssueDate, props.Text{Top: 8, Align: align.Right, Size: 8}),
		),
	)

	m.AddRow(10,
		text.NewCol(3, "Date", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Montant", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, row := range statement.Rows {
		m.AddRow(8,
			text.NewCol(3, row.Date, props.Text{Size: 8}),
			text.NewCol(6, row.Description, props.Text{Size: 8}),
			text.NewCol(3, row.Amount, props.Text{Size: 8, Align: align.Right}),
		)
	}

	m.AddRow(12,
		col.New(6),
		text.NewCol(3, "TOTAL", props.Text{Style: fontstyle.Bold, Size: 10, Top: 3}),
		text.NewCol(3, statement.Total, props.Text{Style: fontstyle.Bold, Size: 10, Top: 3, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
