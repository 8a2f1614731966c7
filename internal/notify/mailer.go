package notify

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	gopkgmail "gopkg.in/gomail.v2"

	"github.com/Skotchmaster/storefront/internal/models"
)

const confirmationText = `Hi {{.CustomerInfo.Name}},

Thank you for your order {{.OrderNumber}}.
{{range .Items}}
  {{.Quantity}} x {{.Name}} ({{.Size}}, {{.Color}}) {{printf "%.2f" .Price}}{{end}}

Subtotal: {{printf "%.2f" .Subtotal}}
Shipping: {{printf "%.2f" .Shipping}}
Tax: {{printf "%.2f" .Tax}}
Discount: {{printf "%.2f" .Discount}}
Total: {{printf "%.2f" .Total}}

Payment: {{.PaymentMethod}}
Ship to: {{.ShippingAddress.FullName}}, {{.ShippingAddress.Address}}, {{.ShippingAddress.City}} {{.ShippingAddress.ZipCode}}
`

const confirmationHTML = `<p>Hi {{.CustomerInfo.Name}},</p>
<p>Thank you for your order <b>{{.OrderNumber}}</b>.</p>
<table>
{{range .Items}}<tr><td>{{.Quantity}} x {{.Name}}</td><td>{{.Size}} / {{.Color}}</td><td>{{printf "%.2f" .Price}}</td></tr>
{{end}}</table>
<p>Total: <b>{{printf "%.2f" .Total}}</b> ({{.PaymentMethod}})</p>
`

var (
	textTmpl = texttemplate.Must(texttemplate.New("confirmation.txt").Parse(confirmationText))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("confirmation.html").Parse(confirmationHTML))
)

type Mailer struct {
	dialer *gopkgmail.Dialer
	from   string
}

func NewMailer(host string, port int, user, password, from string) *Mailer {
	d := gopkgmail.NewDialer(host, port, user, password)
	d.SSL = port == 465
	return &Mailer{dialer: d, from: from}
}

// ConfirmationMessage renders the order confirmation addressed to the
// customer.
func ConfirmationMessage(from string, o *models.Order) (*gopkgmail.Message, error) {
	var plain, html bytes.Buffer
	if err := textTmpl.Execute(&plain, o); err != nil {
		return nil, fmt.Errorf("render plain: %w", err)
	}
	if err := htmlTmpl.Execute(&html, o); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	m := gopkgmail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", o.CustomerInfo.Email)
	m.SetHeader("Subject", "Order confirmation "+o.OrderNumber)
	m.SetBody("text/plain", plain.String())
	m.AddAlternative("text/html", html.String())
	return m, nil
}

func (s *Mailer) SendOrderConfirmation(ctx context.Context, o *models.Order) error {
	m, err := ConfirmationMessage(s.from, o)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.dialer.DialAndSend(m)
}
