// Package email sends transactional mail over plain SMTP.
package email

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// LogSender is the fallback when SMTP is not configured. It writes the OTP
// to the server log instead of mailing it.
type LogSender struct{}

func (LogSender) SendOTP(to, otp string) error {
	log.Printf("SMTP not configured, OTP for %s: %s", to, otp)
	return nil
}

type SMTPSender struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewSMTPSenderFromEnv reads SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASS and
// SMTP_FROM. Returns nil when the host is absent so callers can disable mail.
func NewSMTPSenderFromEnv() *SMTPSender {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return nil
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = os.Getenv("SMTP_USER")
	}
	return &SMTPSender{
		host: host,
		port: port,
		user: os.Getenv("SMTP_USER"),
		pass: os.Getenv("SMTP_PASS"),
		from: from,
	}
}

// SendOTP mails a password reset code to the given address.
func (s *SMTPSender) SendOTP(to, otp string) error {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Password Reset OTP\r\n\r\nYour OTP for password reset is: %s\r\nIt expires in 10 minutes.\r\n",
		s.from, to, otp,
	)

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}
	addr := s.host + ":" + s.port
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
