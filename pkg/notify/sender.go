package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// SMTPSender delivers mail through an SMTP relay, upgrading to TLS when the
// relay offers it and authenticating with PLAIN when a username is set.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Send submits one message. ctx bounds the whole SMTP conversation.
func (s SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := newMsg(msg)
	if err != nil {
		return err
	}
	opts := []mail.Option{
		mail.WithPort(s.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(30 * time.Second),
	}
	if s.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.Username),
			mail.WithPassword(s.Password),
		)
	}
	client, err := mail.NewClient(s.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client for %s: %w", s.Host, err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send via %s: %w", s.Host, err)
	}
	return nil
}

// newMsg turns a rendered message into a single-part HTML mail.
func newMsg(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("from address %q: %w", msg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("to address %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	return m, nil
}

// LogSender writes messages to the log instead of sending them; used when
// no SMTP relay is configured.
type LogSender struct {
	Logger *zap.Logger
}

// Send logs the envelope and the size of the body.
func (s LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("email not sent, smtp disabled",
		zap.String("from", msg.From),
		zap.String("to", msg.To),
		zap.String("subject", strings.TrimSpace(msg.Subject)),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}
