package email

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"

	"github.com/sushil-kumar-saw/mitra-farm/internal/config"
)

// Sender defines the interface for sending emails.
// The rawMessage parameter should contain the full email message, including headers and body, properly formatted.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, rawMessage []byte) error
}

// BuildMessage assembles a plain text message with the essential headers.
func BuildMessage(from string, to []string, subject, body string) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	if !strings.HasSuffix(body, "\r\n") {
		sb.WriteString("\r\n")
	}
	return []byte(sb.String())
}

// SMTPSender implements the Sender interface using Go's net/smtp package.
type SMTPSender struct {
	from string
	auth smtp.Auth
	addr string
}

// NewSMTPSender creates a new SMTPSender, or a LoggingSender when no SMTP
// host is configured.
func NewSMTPSender(cfg *config.Config) Sender {
	if cfg.SmtpHost == "" {
		log.Println("SMTP host not configured, using logging email sender.")
		return &LoggingSender{from: cfg.SmtpFromAddress}
	}

	var auth smtp.Auth
	if cfg.SmtpUsername != "" {
		auth = smtp.PlainAuth("", cfg.SmtpUsername, cfg.SmtpPassword, cfg.SmtpHost)
	}
	return &SMTPSender{
		from: cfg.SmtpFromAddress,
		auth: auth,
		addr: fmt.Sprintf("%s:%d", cfg.SmtpHost, cfg.SmtpPort),
	}
}

// Send sends an email using SMTP.
// The rawMessage is expected to be the complete email content.
func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if err := smtp.SendMail(s.addr, s.auth, s.from, to, rawMessage); err != nil {
		log.Printf("Failed to send email via SMTP to %v: %v", to, err)
		return fmt.Errorf("smtp error: %w", err)
	}
	log.Printf("Email sent via SMTP to %v (Subject: %s)", to, subject)
	return nil
}

// LoggingSender just logs email details.
// Useful for development or when SMTP isn't configured.
type LoggingSender struct {
	from string
}

func (s *LoggingSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	log.Printf("--- Sending Email (Logged) ---")
	log.Printf("To: %v", to)
	log.Printf("Configured From: %s", s.from)
	log.Printf("Subject: %s", subject)
	log.Println(string(rawMessage))
	log.Println("--- End Email ---")
	return nil
}
