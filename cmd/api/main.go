package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contacts/internal/cache"
	"contacts/internal/config"
	"contacts/internal/database"
	"contacts/internal/pkg/jwt"
	"contacts/internal/pkg/logger"
	"contacts/internal/pkg/mailer"
	"contacts/internal/pkg/password"
	"contacts/internal/pkg/storage"
	"contacts/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, logger.Format(cfg.LogFormat))
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, false)
	if err != nil {
		return err
	}
	if err := repository.Migrate(db); err != nil {
		return err
	}

	rdb, err := cache.Connect(ctx, cache.RedisConfig{
		URL:            cfg.Redis.URL,
		RetryAttempts:  cfg.Redis.RetryAttempts,
		RetryInterval:  cfg.Redis.RetryInterval,
		ConnectTimeout: cfg.Redis.ConnectTimeout,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()
	sessions := cache.NewSessionCache(rdb, cfg.Redis.ProfileTTL)

	tokens, err := jwt.New(jwt.Config{
		Secret:          cfg.JWT.Secret,
		Algorithm:       cfg.JWT.Algorithm,
		AccessTTL:       cfg.JWT.AccessTTL,
		RefreshTTL:      cfg.JWT.RefreshTTL,
		VerificationTTL: cfg.JWT.VerificationTTL,
		ResetTTL:        cfg.JWT.ResetTTL,
	})
	if err != nil {
		return err
	}

	sender, err := newSender(cfg, log)
	if err != nil {
		return err
	}
	mail := mailer.NewAsync(mailer.New(sender), log)
	defer mail.Wait()

	avatars, err := newAvatarStore(ctx, cfg)
	if err != nil {
		return err
	}

	r := newRouter(routerDeps{
		cfg:      cfg,
		log:      log,
		db:       db,
		sessions: sessions,
		tokens:   tokens,
		hasher:   password.NewHasher(password.DefaultParams),
		mail:     mail,
		avatars:  avatars,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", srv.Addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newSender(cfg *config.Config, log *slog.Logger) (mailer.Sender, error) {
	if !cfg.UsePostmark() {
		log.Warn("POSTMARK_SERVER_TOKEN not set, emails are written to the log")
		return mailer.NewConsoleSender(log), nil
	}
	return mailer.NewPostmarkSender(mailer.PostmarkConfig{
		ServerToken:  cfg.Mail.ServerToken,
		AccountToken: cfg.Mail.AccountToken,
		SenderEmail:  cfg.Mail.SenderEmail,
		SupportEmail: cfg.Mail.SupportEmail,
	})
}

func newAvatarStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if !cfg.UseS3() {
		return storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.StaticPrefix), nil
	}
	return storage.NewS3Store(ctx, storage.S3Config{
		Bucket:         cfg.Storage.S3Bucket,
		Region:         cfg.Storage.S3Region,
		AccessKeyID:    cfg.Storage.S3AccessKeyID,
		SecretKey:      cfg.Storage.S3SecretKey,
		Endpoint:       cfg.Storage.S3Endpoint,
		BaseURL:        cfg.Storage.S3BaseURL,
		ForcePathStyle: cfg.Storage.S3ForcePathStyle,
	}, nil)
}
