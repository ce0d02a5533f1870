package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"text/template"

	apperrors "github.com/justsurfingit/job-board/internal/errors"
	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
)

type emailTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(subject, body string) emailTemplate {
	return emailTemplate{
		subject: template.Must(template.New("subject").Parse(subject)),
		body:    template.Must(template.New("body").Parse(body)),
	}
}

var emailTemplates = map[string]emailTemplate{
	KeyApplication: mustTemplate(
		`New application for {{.jobTitle}}`,
		"A candidate applied to {{.jobTitle}}.\n\nReview it at {{.jobUrl}}\n",
	),
	KeyHiring: mustTemplate(
		`You're hired at {{.company}}`,
		"Congratulations! {{.company}} accepted your application for {{.jobTitle}}.\n\nDetails: {{.jobUrl}}\n",
	),
	KeyRejection: mustTemplate(
		`Update on your application to {{.company}}`,
		"Thank you for applying to {{.jobTitle}} at {{.company}}. The team decided not to move forward.\n\nDetails: {{.jobUrl}}\n",
	),
}

// Render produces the subject and body for n.
func Render(n Notification) (string, string, error) {
	tmpl, ok := emailTemplates[n.Key]
	if !ok {
		return "", "", fmt.Errorf("no email template for %q", n.Key)
	}
	data := map[string]string{}
	for _, d := range n.Data {
		data[d.Key] = d.Value
	}

	var subject, body bytes.Buffer
	if err := tmpl.subject.Execute(&subject, data); err != nil {
		return "", "", err
	}
	if err := tmpl.body.Execute(&body, data); err != nil {
		return "", "", err
	}
	return subject.String(), body.String(), nil
}

// MailSender delivers one plain-text email.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// GmailSender sends through the Gmail API as the authorized account.
type GmailSender struct {
	service *gmail.Service
	from    string
}

func NewGmailSender(service *gmail.Service, from string) *GmailSender {
	return &GmailSender{service: service, from: from}
}

func (s *GmailSender) Send(ctx context.Context, to, subject, body string) error {
	msg := &gmail.Message{Raw: encodeMessage(s.from, to, subject, body)}
	_, err := s.service.Users.Messages.Send("me", msg).Context(ctx).Do()
	return err
}

func encodeMessage(from, to, subject, body string) string {
	var b strings.Builder
	if from != "" && from != "me" {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(body)
	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}

// EmailDispatcher renders notifications as email. Recipients without an
// address are skipped.
type EmailDispatcher struct {
	sender MailSender
	logger *zap.Logger
}

func NewEmailDispatcher(sender MailSender, logger *zap.Logger) *EmailDispatcher {
	return &EmailDispatcher{sender: sender, logger: logger}
}

func (d *EmailDispatcher) Notify(ctx context.Context, n Notification) error {
	subject, body, err := Render(n)
	if err != nil {
		return apperrors.Internal("rendering notification email", err)
	}

	var failed int
	for _, r := range n.Recipients {
		if r.Email == "" {
			continue
		}
		if err := d.sender.Send(ctx, r.Email, subject, body); err != nil {
			failed++
			d.logger.Error("failed to send notification email",
				zap.String("key", n.Key),
				zap.String("recipient", r.AuthID),
				zap.Error(err))
		}
	}
	if failed > 0 {
		return apperrors.Unavailable(fmt.Sprintf("%d notification emails failed", failed), nil)
	}
	return nil
}
