package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

var (
	ErrInvalidConfig = errors.New("invalid mailer config")
	ErrSendFailed    = errors.New("failed to send email")
	ErrNoRecipient   = errors.New("email recipient is empty")
)

// Dispatcher sends the account emails the auth flows need.
type Dispatcher interface {
	SendVerification(ctx context.Context, email, name, baseURL, token string) error
	SendPasswordReset(ctx context.Context, email, name, baseURL, token string) error
}

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Message struct {
	To       string
	Subject  string
	HTMLBody string
	Tag      string
}

const (
	VerifyPath = "/api/v1/users/verify/"
	ResetPath  = "/reset-password?token="
)

var (
	verifyTmpl = template.Must(template.New("verify").Parse(
		`<p>Hi {{.Name}},</p><p>Confirm your email by opening <a href="{{.Link}}">this link</a>. It expires soon.</p>`))
	resetTmpl = template.Must(template.New("reset").Parse(
		`<p>Hi {{.Name}},</p><p>Someone asked to reset your password. If it was you, <a href="{{.Link}}">choose a new one</a>. Otherwise ignore this email.</p>`))
)

// Mailer renders account emails and hands them to a Sender.
type Mailer struct {
	sender Sender
}

func New(sender Sender) *Mailer {
	return &Mailer{sender: sender}
}

func (m *Mailer) SendVerification(ctx context.Context, email, name, baseURL, token string) error {
	link := strings.TrimRight(baseURL, "/") + VerifyPath + url.PathEscape(token)
	return m.send(ctx, verifyTmpl, email, name, link, "Confirm your email", "email-verification")
}

func (m *Mailer) SendPasswordReset(ctx context.Context, email, name, baseURL, token string) error {
	link := strings.TrimRight(baseURL, "/") + ResetPath + url.QueryEscape(token)
	return m.send(ctx, resetTmpl, email, name, link, "Reset your password", "password-reset")
}

func (m *Mailer) send(ctx context.Context, tmpl *template.Template, email, name, link, subject, tag string) error {
	if strings.TrimSpace(email) == "" {
		return ErrNoRecipient
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, struct{ Name, Link string }{name, link}); err != nil {
		return fmt.Errorf("render %s: %w", tag, err)
	}

	return m.sender.Send(ctx, Message{
		To:       email,
		Subject:  subject,
		HTMLBody: body.String(),
		Tag:      tag,
	})
}
