// Package mail sends transactional email over SMTP.
package mail

import (
	"bytes"
	"context"
	"sync"
	"time"

	gomail "github.com/go-mail/mail/v2"
	"github.com/inkbloom/inkbloom/pkg/logger"
)

const newsletterTemplate = "newsletter_confirm.html"

// Sender delivers the newsletter confirmation link.
type Sender interface {
	SendNewsletterConfirmation(ctx context.Context, to, name, link string) error
}

type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type TemplateParser interface {
	ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error)
}

// Mail sends templated messages through an SMTP dialer.
type Mail struct {
	mu     sync.Mutex
	dialer Dialer
	parser TemplateParser
	sender string
}

// NewMailer creates a new mailer with the given host, port, username, password and sender.
func NewMailer(host string, port int, username, password, sender string) *Mail {
	dialer := gomail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second

	return &Mail{
		dialer: dialer,
		sender: sender,
		parser: NewTemplate(),
	}
}

func (m *Mail) send(recipient string, data any, templateFile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	subject, plainBody, htmlBody, err := m.parser.ParseTemplate(templateFile, data)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", plainBody.String())
	msg.AddAlternative("text/html", htmlBody.String())

	return m.dialer.DialAndSend(msg)
}

func (m *Mail) SendNewsletterConfirmation(ctx context.Context, to, name, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.send(to, struct {
		Name        string
		ConfirmLink string
	}{Name: name, ConfirmLink: link}, newsletterTemplate)
}

// LogSender writes the link to the log instead of sending mail. Used when
// no SMTP host is configured.
type LogSender struct{}

func (LogSender) SendNewsletterConfirmation(ctx context.Context, to, name, link string) error {
	logger.Infof("newsletter confirmation for %s <%s>: %s", name, to, link)
	return nil
}
