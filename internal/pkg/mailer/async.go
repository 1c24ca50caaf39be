package mailer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultSendTimeout = 15 * time.Second

// Async runs every dispatch on its own goroutine, detached from the caller's
// cancellation. Failures are logged and never reach the caller.
type Async struct {
	next    Dispatcher
	log     *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(next Dispatcher, log *slog.Logger) *Async {
	return &Async{next: next, log: log, timeout: defaultSendTimeout}
}

func (a *Async) SendVerification(ctx context.Context, email, name, baseURL, token string) error {
	a.spawn(ctx, "verification", email, func(ctx context.Context) error {
		return a.next.SendVerification(ctx, email, name, baseURL, token)
	})
	return nil
}

func (a *Async) SendPasswordReset(ctx context.Context, email, name, baseURL, token string) error {
	a.spawn(ctx, "password_reset", email, func(ctx context.Context) error {
		return a.next.SendPasswordReset(ctx, email, name, baseURL, token)
	})
	return nil
}

// Wait blocks until in-flight sends finish; used on shutdown.
func (a *Async) Wait() {
	a.wg.Wait()
}

func (a *Async) spawn(parent context.Context, kind, email string, send func(context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), a.timeout)
		defer cancel()

		if err := send(ctx); err != nil {
			a.log.ErrorContext(ctx, "email dispatch failed", "kind", kind, "to", email, "error", err)
		}
	}()
}
