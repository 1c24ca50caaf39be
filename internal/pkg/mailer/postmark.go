package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	SenderEmail  string
	SupportEmail string
}

type postmarkClient interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkSender delivers messages through Postmark's transactional API.
type PostmarkSender struct {
	client postmarkClient
	cfg    PostmarkConfig
}

func NewPostmarkSender(cfg PostmarkConfig) (*PostmarkSender, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: postmark server token is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: sender email is required", ErrInvalidConfig)
	}
	if cfg.SupportEmail == "" {
		cfg.SupportEmail = cfg.SenderEmail
	}

	return &PostmarkSender{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		cfg:    cfg,
	}, nil
}

func (s *PostmarkSender) Send(ctx context.Context, msg Message) error {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:       s.cfg.SenderEmail,
		ReplyTo:    s.cfg.SupportEmail,
		To:         msg.To,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.HTMLBody,
		TrackOpens: false,
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrSendFailed, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
