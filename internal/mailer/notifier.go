package mailer

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/interatlas/management-system/internal/i18n"
	"github.com/interatlas/management-system/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var emailTmpl = template.Must(template.ParseFS(templateFS, "templates/email.html"))

type row struct{ Label, Value string }

type email struct {
	Lang      string
	Title     string
	Intro     string
	Lines     []row
	Link      string
	LinkLabel string
	Footer    string
}

// Notifier renders and sends the workflow mails.  Delivery is best-effort:
// failures end up in the mail log and are not reported to the caller.
type Notifier struct {
	mailer  Mailer
	log     *zap.SugaredLogger
	timeout time.Duration
}

func NewNotifier(m Mailer, log *zap.SugaredLogger) *Notifier {
	return &Notifier{mailer: m, log: log, timeout: 15 * time.Second}
}

func (n *Notifier) send(ctx context.Context, subjectKey string, to []string, e email) {
	if len(to) == 0 {
		return
	}
	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, e); err != nil {
		n.log.Errorw("render mail", "subject", subjectKey, "err", err)
		return
	}
	// the request may already be finished; the mail should still go out
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := n.mailer.Send(ctx, i18n.T(subjectKey, e.Lang), to, buf.String()); err != nil {
		n.log.Warnw("mail not delivered", "subject", subjectKey, "recipients", len(to), "err", err)
	}
}

func linkMail(lang, titleKey, intro, link string) email {
	return email{
		Lang:      lang,
		Title:     i18n.T(titleKey, lang),
		Intro:     intro,
		Link:      link,
		LinkLabel: i18n.T("email_open_link", lang),
		Footer:    i18n.T("email_link_valid", lang),
	}
}

func (n *Notifier) Invitation(ctx context.Context, lang, to, inviter, link string) {
	intro := strings.ReplaceAll(i18n.T("email_invitation_body", lang), "{{inviter}}", inviter)
	n.send(ctx, "email_invitation_subject", []string{to}, linkMail(lang, "email_invitation_subject", intro, link))
}

func (n *Notifier) PasswordReset(ctx context.Context, lang, to, link string) {
	n.send(ctx, "email_reset_password_subject", []string{to},
		linkMail(lang, "email_reset_password_subject", i18n.T("email_reset_password_body", lang), link))
}

func (n *Notifier) EmailVerification(ctx context.Context, lang, to, link string) {
	n.send(ctx, "email_verification_subject", []string{to},
		linkMail(lang, "email_verification_subject", i18n.T("email_verification_body", lang), link))
}

func (n *Notifier) TaskCreated(ctx context.Context, lang string, to []string, t model.Task, author string) {
	n.send(ctx, "email_task_subject", to, email{
		Lang:  lang,
		Title: i18n.T("email_task_subject", lang),
		Intro: strings.ReplaceAll(i18n.T("email_task_body", lang), "{{author}}", author),
		Lines: []row{{Value: t.Text}},
	})
}

func (n *Notifier) VisitScheduled(ctx context.Context, lang string, to []string, v model.Visit, c model.Client) {
	n.send(ctx, "email_visit_subject", to, email{
		Lang:  lang,
		Title: i18n.T("email_visit_subject", lang),
		Intro: i18n.T("email_visit_body", lang),
		Lines: []row{
			{i18n.T("label_date", lang), v.Date.Format("2006-01-02")},
			{i18n.T("label_client", lang), c.Company + " " + c.City},
			{i18n.T("label_purpose", lang), v.Purpose},
		},
	})
}
