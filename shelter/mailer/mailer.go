package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// SendTimeout caps how long a single smtp delivery may take. Exceeding it
// surfaces as an error value to the caller, never as a panic or a hung
// request.
const SendTimeout = 5 * time.Second

type Mailer interface {
	Send(ctx context.Context, to string, msg Message) error
}

type SmtpMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSmtpMailer(host string, port int, username, password, from string) *SmtpMailer {
	return &SmtpMailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *SmtpMailer) Send(ctx context.Context, to string, msg Message) error {
	email := mail.NewMsg()
	if err := email.From(m.from); err != nil {
		return fmt.Errorf("invalid sender address '%v': %w", m.from, err)
	}
	if err := email.To(to); err != nil {
		return fmt.Errorf("invalid recipient address '%v': %w", to, err)
	}
	email.Subject(msg.Subject)
	email.SetBodyString(mail.TypeTextHTML, msg.Html)

	client, err := mail.NewClient(
		m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
	)
	if err != nil {
		return fmt.Errorf("error creating smtp client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, SendTimeout)
	defer cancel()

	if err := client.DialAndSendWithContext(ctx, email); err != nil {
		return fmt.Errorf("error sending email to '%v': %w", to, err)
	}

	return nil
}
