package render

import (
	"bytes"
	"html/template"
	"time"

	"github.com/smallbiznis/cyberdesk/internal/billing"
	businessdomain "github.com/smallbiznis/cyberdesk/internal/business/domain"
	ledgerdomain "github.com/smallbiznis/cyberdesk/internal/ledger/domain"
	receiptdomain "github.com/smallbiznis/cyberdesk/internal/receipt/domain"
)

const baseStyle = `
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 40px;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      color: #1a1f36;
      background: #f7f9fc;
    }
    .card {
      background: #ffffff;
      max-width: 760px;
      margin: 0 auto;
      padding: 48px;
      box-shadow: 0 2px 5px rgba(0,0,0,0.04);
      border-radius: 4px;
    }
    .header { display: flex; justify-content: space-between; margin-bottom: 32px; }
    .header h1 { margin: 0; font-size: 24px; }
    .label { font-size: 11px; text-transform: uppercase; color: #8792a2; font-weight: 600; }
    .value { font-size: 14px; line-height: 1.5; }
    .legal { font-size: 11px; color: #697386; }
    table { width: 100%; border-collapse: collapse; margin: 24px 0; }
    th { text-align: left; font-size: 11px; text-transform: uppercase; color: #8792a2; border-bottom: 1px solid #e3e8ee; padding: 10px 0; }
    td { padding: 12px 0; border-bottom: 1px solid #e3e8ee; font-size: 14px; }
    .td-right { text-align: right; }
    .total { display: flex; justify-content: flex-end; gap: 48px; font-size: 18px; font-weight: 700; }
    .footer { margin-top: 40px; text-align: center; font-size: 12px; color: #8792a2; }
    @media print { body { background: #fff; padding: 0; } .card { box-shadow: none; } }
`

const receiptHTMLTemplate = `<!doctype html>
<html lang="fr">
<head>
  <meta charset="utf-8" />
  <title>{{.Doc.Title}} {{.Doc.Number}}</title>
  <style>` + baseStyle + `</style>
</head>
<body>
  <div class="card">
    <div class="header">
      <div>
        {{if .Doc.Business.Logo}}<img src="{{safeURL .Doc.Business.Logo}}" style="max-height: 48px;" alt="{{.Doc.Business.Name}}"><br>{{end}}
        <strong>{{.Doc.Business.Name}}</strong>
        <div class="value">{{.Doc.Business.Address}}</div>
        <div class="value">{{.Doc.Business.Phone}}</div>
        <div class="value">{{.Doc.Business.Email}}</div>
        <div class="legal">NIF: {{.Doc.Business.NIF}} &middot; STAT: {{.Doc.Business.STAT}}</div>
      </div>
      <div style="text-align: right;">
        <h1>{{.Doc.Title}}</h1>
        <div class="label">N°</div>
        <div class="value">{{.Doc.Number}}</div>
        <div class="label">Date</div>
        <div class="value">{{formatDate .Doc.IssuedAt}}</div>
      </div>
    </div>

    <div class="label">Client</div>
    <div class="value"><strong>{{.Doc.ClientName}}</strong></div>

    <table>
      <thead>
        <tr>
          <th style="width: 55%;">Désignation</th>
          <th class="td-right">Qté</th>
          <th class="td-right">P.U.</th>
          <th class="td-right">Montant</th>
        </tr>
      </thead>
      <tbody>
        {{range .Doc.Lines}}
        <tr>
          <td>{{.Description}}</td>
          <td class="td-right">{{.Quantity}}</td>
          <td class="td-right">{{formatMoney .UnitPrice $.Currency}}</td>
          <td class="td-right">{{formatMoney .Amount $.Currency}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>

    <div class="total">
      <span>TOTAL</span>
      <span>{{formatMoney .Doc.Total .Currency}}</span>
    </div>

    <div class="footer">Merci de votre visite !</div>
  </div>
</body>
</html>
`

const statementHTMLTemplate = `<!doctype html>
<html lang="fr">
<head>
  <meta charset="utf-8" />
  <title>Relevé de Caisse</title>
  <style>` + baseStyle + `</style>
</head>
<body>
  <div class="card">
    <div class="header">
      <div>
        <strong>{{.Doc.Business.Name}}</strong>
        <div class="value">{{.Doc.Business.Address}}</div>
        <div class="legal">NIF: {{.Doc.Business.NIF}} &middot; STAT: {{.Doc.Business.STAT}}</div>
      </div>
      <div style="text-align: right;">
        <h1>Relevé de Caisse</h1>
        <div class="label">Édité le</div>
        <div class="value">{{formatDateTime .Doc.IssuedAt}}</div>
      </div>
    </div>

    <table>
      <thead>
        <tr>
          <th>Date</th>
          <th>Description</th>
          <th class="td-right">Montant</th>
        </tr>
      </thead>
      <tbody>
        {{range .Doc.Transactions}}
        <tr>
          <td>{{.Date}}</td>
          <td>{{.Description}}</td>
          <td class="td-right">{{formatMoney (signed .) $.Currency}}</td>
        </tr>
        {{else}}
        <tr><td colspan="3">Aucune transaction</td></tr>
        {{end}}
      </tbody>
    </table>

    <div class="total">
      <span>TOTAL</span>
      <span>{{formatMoney .Doc.Total .Currency}}</span>
    </div>
  </div>
</body>
</html>
`

type Renderer interface {
	RenderReceipt(doc receiptdomain.Document) (string, error)
	RenderStatement(doc receiptdomain.StatementDocument) (string, error)
}

type HTMLRenderer struct {
	receipt   *template.Template
	statement *template.Template
}

func NewRenderer() Renderer {
	funcs := template.FuncMap{
		"formatMoney":    billing.FormatAmount,
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,
		"signed":         func(tx ledgerdomain.Transaction) int64 { return tx.SignedAmount() },
		"safeURL":        safeURL,
	}
	return &HTMLRenderer{
		receipt:   template.Must(template.New("receipt").Funcs(funcs).Parse(receiptHTMLTemplate)),
		statement: template.Must(template.New("statement").Funcs(funcs).Parse(statementHTMLTemplate)),
	}
}

type receiptView struct {
	Doc      receiptdomain.Document
	Currency businessdomain.Currency
}

type statementView struct {
	Doc      receiptdomain.StatementDocument
	Currency businessdomain.Currency
}

func (r *HTMLRenderer) RenderReceipt(doc receiptdomain.Document) (string, error) {
	var buf bytes.Buffer
	if err := r.receipt.Execute(&buf, receiptView{Doc: doc, Currency: doc.Business.Currency}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *HTMLRenderer) RenderStatement(doc receiptdomain.StatementDocument) (string, error) {
	var buf bytes.Buffer
	if err := r.statement.Execute(&buf, statementView{Doc: doc, Currency: doc.Business.Currency}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatDate(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Format("02/01/2006")
}

func formatDateTime(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Format(ledgerdomain.DateLayout)
}

// safeURL lets uploaded data-URL logos through; anything else is escaped by
// the template as usual.
func safeURL(value string) any {
	if len(value) > len("data:image/") && value[:len("data:image/")] == "data:image/" {
		return template.URL(value)
	}
	return value
}
