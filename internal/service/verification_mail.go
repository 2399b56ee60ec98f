// Package service contains long running helpers the handlers hand work to
package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"

	"gopkg.in/gomail.v2"
)

// VerificationSender delivers the verification link for token to an address
type VerificationSender interface {
	SendVerificationMail(ctx context.Context, to, token string) error
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// BaseURL is the public scheme://host the verification link points to
	BaseURL string
}

// SMTPMailer sends verification mails over SMTP
type SMTPMailer struct {
	dialer  *gomail.Dialer
	from    string
	baseURL string
}

func NewSMTPMailer(cfg MailConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:    cfg.From,
		baseURL: cfg.BaseURL,
	}
}

// VerificationLink returns the absolute link that activates the account
// holding token
func VerificationLink(baseURL, token string) string {
	return fmt.Sprintf("%s/auth/verificar-email?token=%s", baseURL, url.QueryEscape(token))
}

func (m *SMTPMailer) message(to, token string) (*gomail.Message, error) {
	if to == m.from {
		return nil, errors.New("invalid email address")
	}

	link := html.EscapeString(VerificationLink(m.baseURL, token))

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Confirme seu e-mail")
	msg.SetBody("text/plain", "Confirme seu e-mail abrindo o link abaixo:\n\n"+VerificationLink(m.baseURL, token)+"\n")
	msg.AddAlternative("text/html", fmt.Sprintf("<p>Clique <a href='%v'>aqui</a> para confirmar sua conta.</p><p>Se o botão não funcionar, abra: %v</p>", link, link))

	return msg, nil
}

// SendVerificationMail dials the SMTP server and sends the mail. gomail has
// no context support so ctx only bounds how long the caller waits.
func (m *SMTPMailer) SendVerificationMail(ctx context.Context, to, token string) error {
	msg, err := m.message(to, token)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
