package mail

import (
	"context"
	"fmt"
	"net/smtp"
)

// Config — параметры SMTP-сервера для отправки писем.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender отправляет письма через обычный SMTP.
type Sender struct {
	cfg Config
}

func NewSender(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

// Send отправляет письмо на указанный адрес. net/smtp не принимает контекст,
// поэтому отмена проверяется до отправки.
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	const op = "mail.Sender.Send"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	msg := []byte("From: " + s.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		body + "\r\n")

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
