// Package mailer delivers HTML mail over SMTP and renders the notification
// mails sent by the workflows.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/interatlas/management-system/internal/config"
	"github.com/interatlas/management-system/internal/metrics"
)

// Mailer sends one HTML message to one or more recipients.
type Mailer interface {
	Send(ctx context.Context, subject string, to []string, html string) error
}

var errNoRecipients = errors.New("no recipients")

// SMTP sends through a configured server.  A single recipient goes in To;
// broadcasts address the sender and put everyone else in Bcc so users do not
// see each other's addresses.
type SMTP struct {
	client *mail.Client
	from   string
}

func NewSMTP(cfg config.MailConfig) (*SMTP, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.TLS {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.NoTLS))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password))
	}
	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTP{client: c, from: cfg.From}, nil
}

func (s *SMTP) Send(ctx context.Context, subject string, to []string, html string) error {
	if len(to) == 0 {
		return errNoRecipients
	}
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return err
	}
	if len(to) == 1 {
		if err := m.To(to[0]); err != nil {
			return err
		}
	} else {
		if err := m.To(s.from); err != nil {
			return err
		}
		if err := m.Bcc(to...); err != nil {
			return err
		}
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextHTML, html)
	return s.client.DialAndSendWithContext(ctx, m)
}

// LogOnly is used when no SMTP server is configured.  Messages are only
// written to the mail log by Logged.
type LogOnly struct{}

func (LogOnly) Send(context.Context, string, []string, string) error { return nil }

// Line formats a delivery attempt for mail_sender.log.
func Line(to []string, subject string, err error) string {
	status := "Sent"
	if err != nil {
		status = "Failed to send: " + err.Error()
	}
	return fmt.Sprintf("TO: [%s] | SUBJECT: %s | STATUS: %s", strings.Join(to, ", "), subject, status)
}

// Logged records every attempt of the wrapped mailer in the mail log and
// counts it.
type Logged struct {
	next Mailer
	log  *zap.Logger
}

func NewLogged(next Mailer, log *zap.Logger) *Logged { return &Logged{next: next, log: log} }

func (l *Logged) Send(ctx context.Context, subject string, to []string, html string) error {
	err := l.next.Send(ctx, subject, to, html)
	if err != nil {
		l.log.Error(Line(to, subject, err))
		metrics.MailSent.WithLabelValues("failed").Inc()
		return err
	}
	l.log.Info(Line(to, subject, nil))
	metrics.MailSent.WithLabelValues("sent").Inc()
	return nil
}
