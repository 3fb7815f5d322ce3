package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/atomity/research-server-go/internal/util"
)

// Mailer delivers magic-link sign-in emails.
type Mailer interface {
	SendMagicLink(ctx context.Context, email, link string) error
}

// LogMailer writes the link to the log instead of sending mail. Used in
// development and tests, and as the fallback when no SMTP address is
// configured.
type LogMailer struct{}

func (LogMailer) SendMagicLink(_ context.Context, email, link string) error {
	log.Info().
		Str("email", util.MaskEmail(email)).
		Str("link", link).
		Msg("magic link issued (mail delivery disabled)")
	return nil
}

// SMTPMailer sends the magic link through a plain SMTP relay.
type SMTPMailer struct {
	Addr     string // host:port
	From     string
	TokenTTL time.Duration
}

func (m *SMTPMailer) SendMagicLink(_ context.Context, email, link string) error {
	if err := smtp.SendMail(m.Addr, nil, m.From, []string{email}, m.message(email, link)); err != nil {
		return fmt.Errorf("send magic link mail: %w", err)
	}
	return nil
}

func (m *SMTPMailer) message(email, link string) []byte {
	ttl := m.TokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", email)
	b.WriteString("Subject: Sign in to Atomity Research\r\n")
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "Click the link below to sign in:\r\n\r\n%s\r\n\r\n", link)
	fmt.Fprintf(&b, "The link expires in %d minutes. If you did not request it, ignore this email.\r\n",
		int(ttl.Minutes()))
	return []byte(b.String())
}
