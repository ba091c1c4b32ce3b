// Package mail implements ports.MailSender over SMTP.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Sender delivers HTML mail through a single SMTP host.
type Sender struct {
	addr string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSender creates an SMTP sender. Credentials may be empty for
// unauthenticated relays (local development).
func NewSender(host string, port int, username, password string) *Sender {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &Sender{
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: auth,
		send: smtp.SendMail,
	}
}

// SendMail delivers one HTML message. The context is checked before dialing;
// net/smtp itself does not take a context, which is acceptable for a
// fire-and-forget side effect whose failure is already non-fatal.
func (s *Sender) SendMail(ctx context.Context, to, from, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := s.send(s.addr, s.auth, from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp delivery to %s failed: %w", to, err)
	}
	return nil
}
