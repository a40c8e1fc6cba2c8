package smtp

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type mailer struct {
	from   string
	dialer dialer
}

// NewMailer logs in to host:port as username, which is also the From address.
// Port 465 uses implicit TLS.
func NewMailer(host string, port int, username, password string) Mailer {
	return &mailer{
		from:   username,
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	if err := m.dialer.DialAndSend(m.message(to, subject, body)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func (m *mailer) message(to, subject, body string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return msg
}
