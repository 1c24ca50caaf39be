package mailer

import (
	"context"
	"log/slog"
)

// ConsoleSender logs messages instead of delivering them. Used when no
// email provider is configured.
type ConsoleSender struct {
	log *slog.Logger
}

func NewConsoleSender(log *slog.Logger) *ConsoleSender {
	return &ConsoleSender{log: log}
}

func (s *ConsoleSender) Send(ctx context.Context, msg Message) error {
	s.log.InfoContext(ctx, "dev email", "to", msg.To, "subject", msg.Subject, "tag", msg.Tag, "body", msg.HTMLBody)
	return nil
}
