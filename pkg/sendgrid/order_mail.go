package sendgrid

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/shopspring/decimal"
)

const (
	CategoryOrder    = "order"
	CategoryDelivery = "delivery"
)

var funcs = map[string]any{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}

var placedText = texttemplate.Must(texttemplate.New("placed").Funcs(funcs).Parse(
	`Hi {{.UserName}},

Thanks for your order. Status: {{.Status}}.

{{range .Items}}- {{.Name}} x{{.Quantity}}: {{money .Subtotal}}
{{end}}
Total: {{money .Total}}
{{with .DeliveryInfo}}
Delivering to {{.Address}}, {{.City}} {{.Postcode}} ({{.Phone}})
{{end}}`))

var placedHTML = htmltemplate.Must(htmltemplate.New("placed").Funcs(funcs).Parse(
	`<p>Hi {{.UserName}},</p><p>Thanks for your order. Status: <strong>{{.Status}}</strong>.</p><ul>` +
		`{{range .Items}}<li>{{.Name}} &times; {{.Quantity}}: {{money .Subtotal}}</li>{{end}}</ul>` +
		`<p>Total: <strong>{{money .Total}}</strong></p>`))

var deliveredText = texttemplate.Must(texttemplate.New("delivered").Parse(
	`Hi {{.UserName}}, order {{.ID}} is marked as delivered. Thank you for shopping with us.`))

var deliveredHTML = htmltemplate.Must(htmltemplate.New("delivered").Parse(
	`<p>Hi {{.UserName}},</p><p>Order <code>{{.ID}}</code> is marked as delivered. Thank you for shopping with us.</p>`))

// OrderPlacedEmail is the receipt sent to the owner of a new order.
func OrderPlacedEmail(order models.Order) (*models.EmailNotificationRequest, error) {
	subject := fmt.Sprintf("Order %s received", ShortOrderID(order))
	if order.Status == models.OrderStatusPaid {
		subject = fmt.Sprintf("Payment received for order %s", ShortOrderID(order))
	}

	return render(order, subject, CategoryOrder, placedText, placedHTML)
}

// DeliveryConfirmedEmail tells the owner their order is marked delivered.
func DeliveryConfirmedEmail(order models.Order) (*models.EmailNotificationRequest, error) {
	return render(order, fmt.Sprintf("Order %s delivered", ShortOrderID(order)), CategoryDelivery, deliveredText, deliveredHTML)
}

// ShortOrderID is the first block of the order id, upper-cased, as shown in
// subject lines.
func ShortOrderID(order models.Order) string {
	return strings.ToUpper(order.ID.String()[:8])
}

func render(order models.Order, subject, category string, text *texttemplate.Template, html *htmltemplate.Template) (*models.EmailNotificationRequest, error) {

	var plain, rich bytes.Buffer

	if err := text.Execute(&plain, order); err != nil {
		return nil, fmt.Errorf("rendering %s text: %w", text.Name(), err)
	}

	if err := html.Execute(&rich, order); err != nil {
		return nil, fmt.Errorf("rendering %s html: %w", html.Name(), err)
	}

	return &models.EmailNotificationRequest{
		To:          order.UserEmail,
		Subject:     subject,
		Content:     plain.String(),
		HTMLContent: rich.String(),
		Categories:  []string{category},
		OrderID:     order.ID.String(),
	}, nil
}
