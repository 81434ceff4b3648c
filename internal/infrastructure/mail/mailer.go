package mail

import (
	"context"

	"github.com/nimbusapp/nimbus-api/internal/config"
)

// Mailer hands a message to a delivery backend. Success means hand-off, not
// delivery.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// New selects the backend from configuration: the transactional email API in
// production, SMTP for local development against a mail catcher.
func New(cfg *config.Config) Mailer {
	if cfg.MailProvider == "smtp" {
		return NewSMTPMailer(cfg)
	}
	return NewResendMailer(cfg)
}
