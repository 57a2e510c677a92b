package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Email kinds, used as metric labels.
const (
	EmailVerificationKind  = "verification"
	EmailPasswordResetKind = "password_reset"
)

// Mailer delivers transactional emails carrying a single-use token link.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, businessName, link string) error
	SendPasswordResetEmail(ctx context.Context, to, businessName, link string) error
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// SMTPMailer sends plain-text emails over SMTP with PLAIN auth.
type SMTPMailer struct {
	cfg  SMTPConfig
	log  *zap.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log, send: smtp.SendMail}
}

// SendVerificationEmail sends the email verification link.
func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, to, businessName, link string) error {
	body := fmt.Sprintf("Hello %s,\n\nPlease verify your email address by opening the link below. "+
		"The link is valid for 24 hours.\n\n%s\n\nIf you did not create an account, ignore this email.\n",
		businessName, link)
	return m.sendMail(ctx, to, "Verify your email address", body)
}

// SendPasswordResetEmail sends the password reset link.
func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, to, businessName, link string) error {
	body := fmt.Sprintf("Hello %s,\n\nA password reset was requested for your account. "+
		"Open the link below within 10 minutes to choose a new password.\n\n%s\n\n"+
		"If you did not request this, ignore this email.\n",
		businessName, link)
	return m.sendMail(ctx, to, "Reset your password", body)
}

func (m *SMTPMailer) sendMail(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("invalid recipient %q", to)
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.User
	}

	msg := "From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n" +
		body + "\r\n"

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}

	addr := m.cfg.Host + ":" + m.cfg.Port
	if err := m.send(addr, auth, from, []string{to}, []byte(msg)); err != nil {
		m.log.Warn("smtp send failed", zap.String("subject", subject), zap.Error(err))
		return err
	}
	return nil
}

// LogMailer writes the links it would send to the log. It is used when SMTP
// is not configured.
type LogMailer struct {
	log *zap.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// SendVerificationEmail logs the verification link.
func (m *LogMailer) SendVerificationEmail(_ context.Context, to, _, link string) error {
	m.log.Info("smtp not configured, verification email not sent", zap.String("to", to), zap.String("link", link))
	return nil
}

// SendPasswordResetEmail logs the reset link.
func (m *LogMailer) SendPasswordResetEmail(_ context.Context, to, _, link string) error {
	m.log.Info("smtp not configured, password reset email not sent", zap.String("to", to), zap.String("link", link))
	return nil
}
