// Package mail sends transactional emails (verification links, password reset
// codes, artist invitations).
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Password string
}

type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("mail: header injection in recipient or subject")
	}

	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)
	raw := []byte("Subject: " + msg.Subject + "\r\n" +
		"From: " + m.cfg.From + "\r\n" +
		"To: " + msg.To + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		msg.Body + "\r\n")

	if err := smtp.SendMail(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.From, []string{msg.To}, raw); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("subject", msg.Subject).Msg("smtp send failed")
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}

// LogMailer only logs messages. Used when SMTP is not configured.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	log.Ctx(ctx).Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email not sent: smtp disabled")
	return nil
}

// MemoryMailer records messages for tests.
type MemoryMailer struct {
	mu   sync.Mutex
	Sent []Message
}

func (m *MemoryMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return nil
}

func (m *MemoryMailer) Last() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return Message{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}
