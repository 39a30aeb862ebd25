// Package receipt renders a printable, self-contained HTML receipt for
// one order. The document embeds all styling inline so it can be
// downloaded and printed with no external references.
package receipt

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/matchacafe/api/internal/ledger"
)

var receiptTmpl = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html lang="th">
<head>
<meta charset="utf-8">
<title>Receipt {{.OrderID}}</title>
<style>
  body { font-family: sans-serif; max-width: 420px; margin: 2rem auto; color: #222; }
  h1 { font-size: 1.2rem; text-align: center; }
  table { width: 100%; border-collapse: collapse; margin-top: 1rem; }
  td { padding: 0.3rem 0; vertical-align: top; }
  td.label { color: #666; width: 40%; }
  tr.total td { border-top: 1px solid #999; font-weight: bold; padding-top: 0.6rem; }
  p.thanks { text-align: center; margin-top: 2rem; }
</style>
</head>
<body>
<h1>🍵 Matcha Cafe</h1>
<table>
  <tr><td class="label">Order</td><td>{{.OrderID}}</td></tr>
  <tr><td class="label">Date</td><td>{{.CreatedAt}}</td></tr>
  <tr><td class="label">Customer</td><td>{{.Name}}</td></tr>
  <tr><td class="label">Phone</td><td>{{.Phone}}</td></tr>
  <tr><td class="label">Drink</td><td>{{.Menu}}</td></tr>
  <tr><td class="label">Sweetness</td><td>{{.Sweetness}}</td></tr>
  <tr><td class="label">Temperature</td><td>{{.Temperature}}</td></tr>
{{- if .Note}}
  <tr><td class="label">Note</td><td>{{.Note}}</td></tr>
{{- end}}
  <tr><td class="label">Price</td><td>{{.Price}} บาท</td></tr>
{{- if .HasFee}}
  <tr><td class="label">Delivery fee</td><td>{{.DeliveryFee}} บาท</td></tr>
{{- end}}
  <tr class="total"><td class="label">Total</td><td>{{.TotalPrice}} บาท</td></tr>
</table>
<p class="thanks">ขอบคุณที่อุดหนุนค่ะ 🙏</p>
</body>
</html>
`))

type receiptData struct {
	OrderID     string
	CreatedAt   string
	Name        string
	Phone       string
	Menu        string
	Sweetness   string
	Temperature string
	Note        string
	Price       string
	DeliveryFee string
	TotalPrice  string
	HasFee      bool
}

// Render produces the receipt document for one order.
func Render(o ledger.Order) ([]byte, error) {
	created := o.CreatedAt
	if t, err := time.Parse(time.RFC3339, o.CreatedAt); err == nil {
		created = t.Format("2 Jan 2006 15:04")
	}

	data := receiptData{
		OrderID:     o.OrderID,
		CreatedAt:   created,
		Name:        o.Name,
		Phone:       o.Phone,
		Menu:        o.Menu,
		Sweetness:   o.Sweetness,
		Temperature: o.Temperature,
		Note:        o.Note,
		Price:       o.Price.StringFixed(2),
		DeliveryFee: o.DeliveryFee.StringFixed(2),
		TotalPrice:  o.TotalPrice.StringFixed(2),
		HasFee:      o.DeliveryFee.IsPositive(),
	}

	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename is the suggested download name for an order's receipt.
func Filename(orderID string) string {
	return "receipt_" + orderID + ".html"
}
