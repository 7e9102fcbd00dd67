package mail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"NewsDigest/internal/config"
	"NewsDigest/internal/ports"
)

const dialTimeout = 30 * time.Second

// Recipient identifies the addressee of a transactional email.
type Recipient struct {
	Email       string
	DisplayName string
}

func (r Recipient) name() string {
	if strings.TrimSpace(r.DisplayName) != "" {
		return r.DisplayName
	}
	return r.Email
}

// SMTPMailer submits messages through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg       config.EmailConfig
	templates ports.TemplateRenderer
	logger    *slog.Logger
	deliver   func(ctx context.Context, msg *gomail.Msg) error
}

var _ ports.Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer wires the relay settings from cfg.
func NewSMTPMailer(cfg config.EmailConfig, templates ports.TemplateRenderer, log *slog.Logger) *SMTPMailer {
	m := &SMTPMailer{cfg: cfg, templates: templates, logger: log}
	m.deliver = m.dialAndSend
	return m
}

// Send builds the MIME message and hands it to the relay. A new connection is
// used per call so concurrent sends do not share SMTP state.
func (m *SMTPMailer) Send(ctx context.Context, msg ports.Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("message has no recipient")
	}

	built, err := m.build(msg)
	if err != nil {
		return err
	}
	if err := m.deliver(ctx, built); err != nil {
		return fmt.Errorf("send to %s: %w", msg.To, err)
	}

	if m.logger != nil {
		m.logger.Debug("email sent", "to", msg.To, "subject", msg.Subject)
	}
	return nil
}

// SendVerification emails the account verification link.
func (m *SMTPMailer) SendVerification(ctx context.Context, to Recipient, token string) error {
	link := m.link("/verify-email", token)
	body, err := m.templates.Render(TemplateVerify, map[string]string{
		"DISPLAY_NAME": html.EscapeString(to.name()),
		"VERIFY_URL":   link,
		"APP_URL":      m.cfg.AppURL,
	})
	if err != nil {
		return err
	}
	return m.Send(ctx, ports.Message{To: to.Email, Subject: "Verify your Your AI News account", HTML: body})
}

// SendPasswordReset emails the password reset link.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to Recipient, token string) error {
	link := m.link("/reset-password", token)
	body, err := m.templates.Render(TemplateResetPassword, map[string]string{
		"DISPLAY_NAME": html.EscapeString(to.name()),
		"RESET_URL":    link,
		"APP_URL":      m.cfg.AppURL,
	})
	if err != nil {
		return err
	}
	return m.Send(ctx, ports.Message{To: to.Email, Subject: "Reset your Your AI News password", HTML: body})
}

func (m *SMTPMailer) link(path, token string) string {
	return strings.TrimSuffix(m.cfg.AppURL, "/") + path + "?token=" + url.QueryEscape(token)
}

func (m *SMTPMailer) build(msg ports.Message) (*gomail.Msg, error) {
	out := gomail.NewMsg()
	if err := out.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	return out, nil
}

func (m *SMTPMailer) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(dialTimeout),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}

	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
