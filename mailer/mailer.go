// Package mailer sends the back-office "order paid" notification over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/ajebo/storefront-api/config"
	"github.com/ajebo/storefront-api/logging"
	"github.com/ajebo/storefront-api/models"
)

type Sender struct {
	cfg     config.SMTPConfig
	timeout time.Duration
	send    func(ctx context.Context, msg *mail.Msg) error
}

func New(cfg config.SMTPConfig) *Sender {
	s := &Sender{cfg: cfg, timeout: 30 * time.Second}
	s.send = s.dialAndSend
	return s
}

func (s *Sender) Enabled() bool {
	return s.cfg.Enabled()
}

func (s *Sender) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	port := s.cfg.Port
	if port == 0 {
		port = 587
	}
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.User),
		mail.WithPassword(s.cfg.Password),
		mail.WithTimeout(s.timeout),
	}
	if port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// SendOrderPaid emails the admin a summary of a newly paid order.
func (s *Sender) SendOrderPaid(ctx context.Context, order *models.Order) error {
	if !s.Enabled() {
		return nil
	}
	msg, err := s.orderPaidMessage(order)
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}

// NotifyOrderPaid sends the order-paid email in the background. Failures are
// logged and never reach the caller.
func (s *Sender) NotifyOrderPaid(ctx context.Context, order *models.Order) {
	if !s.Enabled() {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		if err := s.SendOrderPaid(ctx, order); err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("reference", order.Reference).Msg("order paid email failed")
		}
	}()
}

func (s *Sender) orderPaidMessage(order *models.Order) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(s.cfg.AdminEmail); err != nil {
		return nil, fmt.Errorf("admin address: %w", err)
	}
	msg.Subject(fmt.Sprintf("New paid order %s (%s)", order.Reference, FormatNaira(order.TotalAmount)))
	msg.SetDate()

	msg.SetBodyString(mail.TypeTextPlain, orderText(order))

	var html bytes.Buffer
	if err := orderHTML.Execute(&html, order); err != nil {
		return nil, fmt.Errorf("render email: %w", err)
	}
	msg.AddAlternativeString(mail.TypeTextHTML, html.String())
	return msg, nil
}

func orderText(o *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s has been paid.\n\n", o.Reference)
	fmt.Fprintf(&b, "Total: %s\n\nItems:\n", FormatNaira(o.TotalAmount))
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %s x%d @ %s\n", it.ProductName, it.Quantity, FormatNaira(it.UnitPrice))
	}
	fmt.Fprintf(&b, "\nDeliver to:\n%s (%s)\n%s\n", o.ShipFullName, o.ShipPhone, o.ShipLine1)
	if o.ShipLine2 != "" {
		fmt.Fprintf(&b, "%s\n", o.ShipLine2)
	}
	if o.ShipLandmark != "" {
		fmt.Fprintf(&b, "Landmark: %s\n", o.ShipLandmark)
	}
	fmt.Fprintf(&b, "%s, %s\n", o.ShipCity, o.ShipState)
	return b.String()
}

var orderHTML = template.Must(template.New("order").Funcs(template.FuncMap{"naira": FormatNaira}).Parse(`
<h2>Order {{.Reference}} has been paid</h2>
<p><strong>Total:</strong> {{naira .TotalAmount}}</p>
<table cellpadding="4">
{{range .Items}}<tr><td>{{.ProductName}}</td><td>x{{.Quantity}}</td><td>{{naira .UnitPrice}}</td></tr>
{{end}}</table>
<p><strong>Deliver to:</strong><br>
{{.ShipFullName}} ({{.ShipPhone}})<br>
{{.ShipLine1}}{{if .ShipLine2}}<br>{{.ShipLine2}}{{end}}<br>
{{if .ShipLandmark}}Landmark: {{.ShipLandmark}}<br>{{end}}
{{.ShipCity}}, {{.ShipState}}</p>
`))

// FormatNaira renders an amount in kobo, e.g. 1000000 -> "₦10,000.00".
func FormatNaira(kobo int64) string {
	sign := ""
	if kobo < 0 {
		sign = "-"
		kobo = -kobo
	}
	whole := fmt.Sprintf("%d", kobo/100)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s₦%s.%02d", sign, b.String(), kobo%100)
}
