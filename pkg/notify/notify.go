// Package notify renders and delivers the transactional emails sent when an
// order is placed.
package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bakeshop/pkg/money"
	"bakeshop/pkg/order"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// Message is one rendered HTML email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config names the addresses the mailer writes from and to.
type Config struct {
	From        string
	BakeryEmail string
	BakeryPhone string
}

// Mailer sends the customer confirmation and the bakery notification for every order.
type Mailer struct {
	cfg      Config
	sender   Sender
	logger   *zap.Logger
	customer *template.Template
	bakery   *template.Template
}

// NewMailer parses the embedded templates once.
func NewMailer(cfg Config, sender Sender, logger *zap.Logger) (*Mailer, error) {
	if sender == nil {
		return nil, errors.New("notify: sender is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("notify: from address is required")
	}
	if strings.TrimSpace(cfg.BakeryEmail) == "" {
		return nil, errors.New("notify: bakery email is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	funcs := template.FuncMap{
		"money": money.Fixed2,
		"upper": strings.ToUpper,
	}
	customer, err := template.New("customer.gohtml").Funcs(funcs).ParseFS(templateFS, "templates/customer.gohtml")
	if err != nil {
		return nil, err
	}
	bakery, err := template.New("bakery.gohtml").Funcs(funcs).ParseFS(templateFS, "templates/bakery.gohtml")
	if err != nil {
		return nil, err
	}
	return &Mailer{cfg: cfg, sender: sender, logger: logger, customer: customer, bakery: bakery}, nil
}

type emailData struct {
	Order       order.Order
	BakeryPhone string
	PlacedDate  string
	PlacedTime  string
}

// OrderPlaced renders both emails and sends them concurrently. The first
// delivery failure is returned.
func (m *Mailer) OrderPlaced(ctx context.Context, o order.Order) error {
	confirmation, notification, err := m.Render(o)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, msg := range []Message{confirmation, notification} {
		g.Go(func() error {
			if err := m.sender.Send(gctx, msg); err != nil {
				return fmt.Errorf("send %q to %s: %w", msg.Subject, msg.To, err)
			}
			m.logger.Debug("email sent", zap.String("order_id", o.ID), zap.String("to", msg.To))
			return nil
		})
	}
	return g.Wait()
}

// Render builds the customer confirmation and the bakery notification.
func (m *Mailer) Render(o order.Order) (Message, Message, error) {
	data := emailData{
		Order:       o,
		BakeryPhone: m.cfg.BakeryPhone,
		PlacedDate:  o.CreatedAt.Format("January 2, 2006"),
		PlacedTime:  o.CreatedAt.Format("January 2, 2006 3:04 PM MST"),
	}
	if data.BakeryPhone == "" {
		data.BakeryPhone = "your-phone-number"
	}

	var customer, bakery bytes.Buffer
	if err := m.customer.Execute(&customer, data); err != nil {
		return Message{}, Message{}, fmt.Errorf("render confirmation: %w", err)
	}
	if err := m.bakery.Execute(&bakery, data); err != nil {
		return Message{}, Message{}, fmt.Errorf("render notification: %w", err)
	}

	c := o.Customer
	confirmation := Message{
		From:    m.cfg.From,
		To:      c.Email,
		Subject: fmt.Sprintf("Order Confirmation #%s - Fresh Delivery to %s!", o.ID, c.City),
		HTML:    customer.String(),
	}
	notification := Message{
		From:    m.cfg.From,
		To:      m.cfg.BakeryEmail,
		Subject: fmt.Sprintf("NEW DELIVERY - %s - $%s - %s, CT", c.Name, money.Fixed2(o.Total), strings.ToUpper(c.City)),
		HTML:    bakery.String(),
	}
	return confirmation, notification, nil
}
