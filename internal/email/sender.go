// Package email handles outbound SMTP delivery and inbound Gmail inbox
// processing.
package email

import (
	"context"

	"smartlead_backend/platform/apperr"
	"smartlead_backend/platform/config"
	"smartlead_backend/platform/logger"

	"github.com/wneessen/go-mail"
)

// Sender delivers outbound email over SMTP.
type Sender struct {
	host     string
	port     int
	username string
	password string
	fromName string
	fromAddr string
	log      *logger.Logger
}

func NewSender(cfg config.EmailSenderConfig, log *logger.Logger) *Sender {
	return &Sender{
		host:     cfg.GetSMTPHost(),
		port:     cfg.GetSMTPPort(),
		username: cfg.GetSMTPUsername(),
		password: cfg.GetSMTPPassword(),
		fromName: cfg.GetEmailFromName(),
		fromAddr: cfg.GetEmailFromAddress(),
		log:      log,
	}
}

func (s *Sender) Send(ctx context.Context, to, subject, body string, cc, bcc []string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromAddr); err != nil {
		return apperr.Validation("invalid sender address: " + err.Error())
	}
	if err := msg.To(to); err != nil {
		return apperr.Validation("invalid recipient address: " + err.Error())
	}
	if len(cc) > 0 {
		if err := msg.Cc(cc...); err != nil {
			return apperr.Validation("invalid cc address: " + err.Error())
		}
	}
	if len(bcc) > 0 {
		if err := msg.Bcc(bcc...); err != nil {
			return apperr.Validation("invalid bcc address: " + err.Error())
		}
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(s.host,
		mail.WithPort(s.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.username),
		mail.WithPassword(s.password),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return apperr.Upstream("failed to configure SMTP client", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return apperr.Upstream("failed to send email", err)
	}

	s.log.Info("email sent", "to", to, "subject", subject)
	return nil
}
