package mailer

import (
	"context"
	"fmt"
	"sync"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"messmate/internal/config"
)

// Sender delivers one HTML message.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// SMTP sends through a single go-mail client. Sends are serialized because the
// client holds one connection at a time.
type SMTP struct {
	from string

	mu     sync.Mutex
	client *mail.Client
}

// NewSMTP configures a client for cfg. It does not dial until the first send.
func NewSMTP(cfg config.SMTPConfig) (*SMTP, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTP{from: cfg.From, client: client}, nil
}

func (s *SMTP) Send(ctx context.Context, to, subject, html string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogSender writes mails to the log instead of sending them. Used when no SMTP
// host is configured.
type LogSender struct {
	Log *zap.Logger
}

func (l LogSender) Send(_ context.Context, to, subject, _ string) error {
	l.Log.Info("mail not sent: smtp disabled", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// SenderFor returns an SMTP sender when cfg names a host and a LogSender otherwise.
func SenderFor(cfg config.SMTPConfig, log *zap.Logger) (Sender, error) {
	if cfg.Host == "" {
		log.Warn("smtp host not configured, mails will only be logged")
		return LogSender{Log: log}, nil
	}
	return NewSMTP(cfg)
}
