package mailer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/mrz1836/postmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

func TestMailer_SendVerification(t *testing.T) {
	s := &recordingSender{}
	m := New(s)

	err := m.SendVerification(context.Background(), "a@x.com", "<alice>", "http://localhost:8080/", "tok.en.value")
	require.NoError(t, err)

	require.Len(t, s.msgs, 1)
	msg := s.msgs[0]
	assert.Equal(t, "a@x.com", msg.To)
	assert.Equal(t, "email-verification", msg.Tag)
	assert.Contains(t, msg.HTMLBody, "http://localhost:8080/api/v1/users/verify/tok.en.value")
	assert.Contains(t, msg.HTMLBody, "&lt;alice&gt;")
}

func TestMailer_SendPasswordReset(t *testing.T) {
	s := &recordingSender{}
	m := New(s)

	require.NoError(t, m.SendPasswordReset(context.Background(), "a@x.com", "alice", "https://app.example.com", "abc"))

	require.Len(t, s.msgs, 1)
	assert.Equal(t, "password-reset", s.msgs[0].Tag)
	assert.Contains(t, s.msgs[0].HTMLBody, "https://app.example.com/reset-password?token=abc")
}

func TestMailer_EmptyRecipient(t *testing.T) {
	m := New(&recordingSender{})
	assert.ErrorIs(t, m.SendVerification(context.Background(), " ", "n", "http://x", "t"), ErrNoRecipient)
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeDispatcher) SendVerification(ctx context.Context, email, _, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "verify:"+email)
	return f.err
}

func (f *fakeDispatcher) SendPasswordReset(ctx context.Context, email, _, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "reset:"+email)
	return f.err
}

func TestAsync_SwallowsErrorsAndSurvivesCancel(t *testing.T) {
	next := &fakeDispatcher{err: errors.New("smtp down")}
	a := NewAsync(next, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	assert.NoError(t, a.SendVerification(ctx, "a@x.com", "alice", "http://x", "t"))
	assert.NoError(t, a.SendPasswordReset(ctx, "b@x.com", "bob", "http://x", "t"))
	cancel()
	a.Wait()

	assert.ElementsMatch(t, []string{"verify:a@x.com", "reset:b@x.com"}, next.calls)
}

type fakePostmark struct {
	got  postmark.Email
	resp postmark.EmailResponse
	err  error
}

func (f *fakePostmark) SendEmail(_ context.Context, email postmark.Email) (postmark.EmailResponse, error) {
	f.got = email
	return f.resp, f.err
}

func TestPostmarkSender(t *testing.T) {
	_, err := NewPostmarkSender(PostmarkConfig{SenderEmail: "no-reply@x.com"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	s, err := NewPostmarkSender(PostmarkConfig{ServerToken: "srv", SenderEmail: "no-reply@x.com"})
	require.NoError(t, err)

	fake := &fakePostmark{}
	s.client = fake

	require.NoError(t, s.Send(context.Background(), Message{To: "a@x.com", Subject: "hi", HTMLBody: "<p>x</p>", Tag: "t"}))
	assert.Equal(t, "no-reply@x.com", fake.got.From)
	assert.Equal(t, "no-reply@x.com", fake.got.ReplyTo)
	assert.Equal(t, "a@x.com", fake.got.To)

	fake.resp = postmark.EmailResponse{ErrorCode: 406, Message: "inactive recipient"}
	assert.ErrorIs(t, s.Send(context.Background(), Message{To: "a@x.com"}), ErrSendFailed)

	fake.resp = postmark.EmailResponse{}
	fake.err = errors.New("timeout")
	assert.ErrorIs(t, s.Send(context.Background(), Message{To: "a@x.com"}), ErrSendFailed)
}
