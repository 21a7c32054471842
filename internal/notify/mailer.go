package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/config"
)

// Message is a single outbound HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	Logger *zap.Logger
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.Logger.Info("email (log transport)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}

// NewMailer builds the transport selected by cfg.Service.
func NewMailer(ctx context.Context, cfg config.MailConfig, logger *zap.Logger) (Mailer, error) {
	switch cfg.Service {
	case "", "log":
		return &LogMailer{Logger: logger}, nil
	case "smtp":
		return NewSMTPMailer(cfg), nil
	case "gmail":
		return NewGmailMailer(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown EMAIL_SERVICE %q", cfg.Service)
	}
}
