package auth

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"contacts/internal/cache"
	"contacts/internal/domain"
	"contacts/internal/pkg/jwt"
	"contacts/internal/pkg/mailer"
	"contacts/internal/pkg/storage"
	"contacts/internal/repository"
)

// MaxAvatarSize is the largest avatar upload accepted.
const MaxAvatarSize = 5 << 20

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Options struct {
	RequireEmailVerification bool
}

type Service struct {
	users   UserRepository
	tokens  TokenService
	hasher  PasswordHasher
	cache   ProfileCache
	mail    mailer.Dispatcher
	avatars storage.Store
	log     *slog.Logger
	opts    Options

	dummyOnce sync.Once
	dummy     string
}

func NewService(
	users UserRepository,
	tokens TokenService,
	hasher PasswordHasher,
	profiles ProfileCache,
	mail mailer.Dispatcher,
	avatars storage.Store,
	log *slog.Logger,
	opts Options,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		users:   users,
		tokens:  tokens,
		hasher:  hasher,
		cache:   profiles,
		mail:    mail,
		avatars: avatars,
		log:     log.With("component", "auth"),
		opts:    opts,
	}
}

func (s *Service) Signup(ctx context.Context, req SignupRequest, baseURL string) (*domain.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        normalizeEmail(req.Email),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.sendVerification(ctx, user, baseURL)
	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Unknown emails pay the same hashing cost as a wrong password.
			s.hasher.Verify(password, s.dummyHash())
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if s.opts.RequireEmailVerification && !user.EmailVerified {
		return nil, ErrEmailNotConfirmed
	}

	pair, err := s.issuePair(user.Email)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	user.RefreshToken = pair.RefreshToken

	s.upgradeHash(ctx, user, password)
	s.putProfile(ctx, user)
	return &LoginResult{User: user, TokenPair: *pair}, nil
}

// upgradeHash re-hashes with the current parameters. The write is skipped
// when the stored hash changed after it was read.
func (s *Service) upgradeHash(ctx context.Context, user *domain.User, password string) {
	if !s.hasher.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Warn("rehash password", "user_id", user.ID, "error", err)
		return
	}
	swapped, err := s.users.SwapPasswordHash(ctx, user.ID, user.PasswordHash, hash)
	if err != nil {
		s.log.Warn("store rehashed password", "user_id", user.ID, "error", err)
		return
	}
	if swapped {
		user.PasswordHash = hash
	}
}

func (s *Service) dummyHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.log.Warn("build dummy password hash", "error", err)
			return
		}
		s.dummy = hash
	})
	return s.dummy
}

// Refresh rotates the refresh token. A presented token that is validly signed
// but no longer the stored one means it was already used, so the stored token
// is cleared and the user has to log in again.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	email, err := s.tokens.Verify(refreshToken, jwt.ScopeRefresh)
	if err != nil {
		s.log.Debug("refresh token rejected", "error", err)
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		s.revoke(ctx, user.ID)
		return nil, ErrInvalidToken
	}

	pair, err := s.issuePair(user.Email)
	if err != nil {
		return nil, err
	}

	swapped, err := s.users.SwapRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	if !swapped {
		// a concurrent refresh with the same token won the swap
		s.revoke(ctx, user.ID)
		return nil, ErrInvalidToken
	}
	return pair, nil
}

// Resolve maps an access token to the caller's identity, reading through the
// profile cache.
func (s *Service) Resolve(ctx context.Context, accessToken string) (*domain.User, error) {
	email, err := s.tokens.Verify(accessToken, jwt.ScopeAccess)
	if err != nil {
		s.log.Debug("access token rejected", "error", err)
		return nil, ErrInvalidToken
	}

	profile, err := s.cache.GetProfile(ctx, email)
	switch {
	case err == nil:
		return fromProfile(profile), nil
	case !errors.Is(err, cache.ErrCacheMiss):
		s.log.Warn("profile cache read failed", "error", err)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	s.putProfile(ctx, user)
	return fromProfile(toProfile(user)), nil
}

func (s *Service) Logout(ctx context.Context, userID int64) error {
	if err := s.users.SetRefreshToken(ctx, userID, ""); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	email, err := s.tokens.Verify(token, jwt.ScopeEmailVerification)
	if err != nil {
		s.log.Debug("verification token rejected", "error", err)
		return ErrInvalidToken
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVerificationFailed
		}
		return fmt.Errorf("get user: %w", err)
	}
	if user.EmailVerified {
		return nil
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	s.dropProfile(ctx, user.Email)
	return nil
}

func (s *Service) ResendVerification(ctx context.Context, email, baseURL string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	s.sendVerification(ctx, user, baseURL)
	return nil
}

// RequestPasswordReset succeeds whether or not the email is registered.
func (s *Service) RequestPasswordReset(ctx context.Context, email, baseURL string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	token, err := s.tokens.Issue(user.Email, jwt.ScopePasswordReset)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	if err := s.mail.SendPasswordReset(ctx, user.Email, user.Name, baseURL, token); err != nil {
		s.log.Error("send password reset email", "user_id", user.ID, "error", err)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	email, err := s.tokens.Verify(token, jwt.ScopePasswordReset)
	if err != nil {
		s.log.Debug("reset token rejected", "error", err)
		return ErrInvalidToken
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("get user: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateAvatar stores the uploaded image and returns its public URL. The
// content type is sniffed from the payload, not taken from the client.
func (s *Service) UpdateAvatar(ctx context.Context, user *domain.User, body io.Reader, size int64) (string, error) {
	if size > MaxAvatarSize {
		return "", ErrAvatarTooLarge
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", ErrInvalidAvatar
	}

	contentType := http.DetectContentType(head)
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return "", ErrInvalidAvatar
	}

	key := fmt.Sprintf("avatars/%d/%s%s", user.ID, uuid.NewString(), ext)
	url, err := s.avatars.Put(ctx, key, contentType, io.MultiReader(bytes.NewReader(head), body), size)
	if err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}

	if err := s.users.UpdateAvatar(ctx, user.ID, url); err != nil {
		return "", fmt.Errorf("update avatar: %w", err)
	}
	s.dropProfile(ctx, user.Email)
	user.AvatarURL = url
	return url, nil
}

// GetUser looks a user up by id for administrative reads.
func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *Service) issuePair(email string) (*TokenPair, error) {
	access, err := s.tokens.Issue(email, jwt.ScopeAccess)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.Issue(email, jwt.ScopeRefresh)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) revoke(ctx context.Context, userID int64) {
	s.log.Warn("refresh token reuse detected, revoking session", "user_id", userID)
	if err := s.users.SetRefreshToken(ctx, userID, ""); err != nil {
		s.log.Error("revoke refresh token", "user_id", userID, "error", err)
	}
}

func (s *Service) sendVerification(ctx context.Context, user *domain.User, baseURL string) {
	token, err := s.tokens.Issue(user.Email, jwt.ScopeEmailVerification)
	if err != nil {
		s.log.Error("issue verification token", "user_id", user.ID, "error", err)
		return
	}
	if err := s.mail.SendVerification(ctx, user.Email, user.Name, baseURL, token); err != nil {
		s.log.Error("send verification email", "user_id", user.ID, "error", err)
	}
}

func (s *Service) putProfile(ctx context.Context, user *domain.User) {
	if err := s.cache.PutProfile(ctx, user.Email, toProfile(user)); err != nil {
		s.log.Warn("profile cache write failed", "user_id", user.ID, "error", err)
	}
}

func (s *Service) dropProfile(ctx context.Context, email string) {
	if err := s.cache.DeleteProfile(ctx, email); err != nil {
		s.log.Warn("profile cache delete failed", "error", err)
	}
}

func toProfile(u *domain.User) *cache.Profile {
	return &cache.Profile{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		AvatarURL:     u.AvatarURL,
		Role:          string(u.Role),
		EmailVerified: u.EmailVerified,
	}
}

func fromProfile(p *cache.Profile) *domain.User {
	return &domain.User{
		ID:            p.ID,
		Name:          p.Name,
		Email:         p.Email,
		AvatarURL:     p.AvatarURL,
		Role:          domain.UserRole(p.Role),
		EmailVerified: p.EmailVerified,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
