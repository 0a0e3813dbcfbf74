package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	mail "github.com/go-mail/mail/v2"

	"casetrack/internal/bootstrap/config"
	"casetrack/internal/errs"
	"casetrack/internal/ports"
)

// SMTPNotifier mails a short transition notice to a fixed recipient list.
// Intended for the low-volume reviewer events, not for every transition.
type SMTPNotifier struct {
	cfg config.SMTPConfig
}

var _ ports.Notifier = (*SMTPNotifier)(nil)

func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPNotifier{cfg: cfg}
}

func (s *SMTPNotifier) Name() string { return "smtp" }

func (s *SMTPNotifier) Notify(ctx context.Context, n ports.Notification) error {
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	to := splitRecipients(s.cfg.To)
	if len(to) == 0 {
		return nil
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", fmt.Sprintf("[casetrack] %s: %s", n.CaseUID, n.EventType))
	m.SetBody("text/plain", fmt.Sprintf(
		"case %s moved to %s (event %s at %s)\n",
		n.CaseUID, n.Status, n.EventType, n.At.Format("2006-01-02 15:04:05 MST"),
	))

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	d.StartTLSPolicy = mail.OpportunisticStartTLS
	d.TLSConfig = &tls.Config{ServerName: s.cfg.Host}

	if err := d.DialAndSend(m); err != nil {
		return errs.Wrap(err, "send mail")
	}
	return nil
}

func splitRecipients(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
