// Package mail delivers verification codes to counsellor accounts.
package mail

import (
	"context"
	"fmt"
	"log"
	"net/smtp"

	"github.com/Shrey-Sawant/Sonder/internal/config"
)

// Sender delivers a one-time verification code.
type Sender interface {
	SendOTP(ctx context.Context, recipient, code string) error
}

// New returns an SMTP sender when configured, otherwise a sender that only
// logs the code (useful for local development).
func New(cfg config.MailConfig) Sender {
	if cfg.Enabled() {
		return &smtpSender{cfg: cfg}
	}
	return logSender{}
}

type smtpSender struct {
	cfg config.MailConfig
}

func (s *smtpSender) SendOTP(_ context.Context, recipient, code string) error {
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Sonder email verification\r\n\r\n"+
		"Your Sonder verification code is %s. It expires in 5 minutes.\r\n",
		s.cfg.From, recipient, code)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := s.cfg.Host + ":" + s.cfg.Port
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{recipient}, []byte(body)); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}

type logSender struct{}

func (logSender) SendOTP(_ context.Context, recipient, code string) error {
	log.Printf("[mail] smtp not configured, verification code for %s: %s", recipient, code)
	return nil
}
