package mail

import (
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"
	"github.com/google/uuid"
)

// SMTPTransport delivers mail over SMTP. SendGrid and Mailgun relays reuse
// this type with their fixed endpoints and credential conventions.
type SMTPTransport struct {
	Host     string
	Port     int
	Username string
	Password string
	// Secure selects implicit TLS; otherwise STARTTLS is negotiated when
	// the server offers it.
	Secure bool
}

func (t *SMTPTransport) dialer() *mail.Dialer {
	d := mail.NewDialer(t.Host, t.Port, t.Username, t.Password)
	d.TLSConfig = &tls.Config{ServerName: t.Host}
	d.SSL = t.Secure
	return d
}

// Send delivers the envelope and returns the assigned message id.
func (t *SMTPTransport) Send(ctx context.Context, env Envelope) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m := mail.NewMessage()
	m.SetHeader("From", env.From)
	m.SetHeader("To", env.Recipients())
	if env.ReplyTo != "" {
		m.SetHeader("Reply-To", env.ReplyTo)
	}
	m.SetHeader("Subject", env.Subject)

	msgID := fmt.Sprintf("<%s@%s>", uuid.NewString(), t.Host)
	m.SetHeader("Message-Id", msgID)

	if env.Text != "" {
		m.SetBody("text/plain", env.Text)
		if env.HTML != "" {
			m.AddAlternative("text/html", env.HTML)
		}
	} else {
		m.SetBody("text/html", env.HTML)
	}

	if err := t.dialer().DialAndSend(m); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return msgID, nil
}

// Verify opens and closes an authenticated connection to the server.
func (t *SMTPTransport) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := t.dialer().Dial()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return conn.Close()
}
