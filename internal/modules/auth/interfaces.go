package auth

import (
	"context"

	"contacts/internal/cache"
	"contacts/internal/domain"
	"contacts/internal/pkg/jwt"
)

// UserRepository is the user directory as seen by the auth service.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	SwapRefreshToken(ctx context.Context, id int64, expected, next string) (bool, error)
	SetRefreshToken(ctx context.Context, id int64, token string) error
	MarkEmailVerified(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SwapPasswordHash(ctx context.Context, id int64, expected, next string) (bool, error)
	UpdateAvatar(ctx context.Context, id int64, url string) error
}

type TokenService interface {
	Issue(subject string, scope jwt.Scope) (string, error)
	Verify(token string, expected jwt.Scope) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
	NeedsRehash(encoded string) bool
}

// ProfileCache is the read-through cache in front of the directory.
type ProfileCache interface {
	GetProfile(ctx context.Context, email string) (*cache.Profile, error)
	PutProfile(ctx context.Context, email string, p *cache.Profile) error
	DeleteProfile(ctx context.Context, email string) error
}
