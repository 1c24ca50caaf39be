package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"contacts/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createUser(t *testing.T, repo *UserRepository, email, name string) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Name: name, PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	u := createUser(t, repo, "  Alice@Example.com ", "alice")
	assert.NotZero(t, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.False(t, u.EmailVerified)
	assert.Empty(t, u.RefreshToken)

	byEmail, err := repo.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Name)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	createUser(t, repo, "a@x.com", "alice")

	err := repo.Create(ctx, &domain.User{Email: "A@x.com", Name: "other", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = repo.Create(ctx, &domain.User{Email: "b@x.com", Name: "alice", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_SwapRefreshToken(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()
	u := createUser(t, repo, "a@x.com", "alice")

	ok, err := repo.SwapRefreshToken(ctx, u.ID, "", "t1")
	require.NoError(t, err)
	assert.False(t, ok, "empty expected never matches")

	require.NoError(t, repo.SetRefreshToken(ctx, u.ID, "t1"))

	ok, err = repo.SwapRefreshToken(ctx, u.ID, "stale", "t2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.SwapRefreshToken(ctx, u.ID, "t1", "t2")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "t2", got.RefreshToken)

	ok, err = repo.SwapRefreshToken(ctx, u.ID, "t1", "t3")
	require.NoError(t, err)
	assert.False(t, ok, "already rotated")

	require.NoError(t, repo.SetRefreshToken(ctx, u.ID, ""))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RefreshToken)
}

func TestUserRepository_SwapRefreshToken_SingleWinner(t *testing.T) {
	db := newTestDB(t)
	// sqlite shared-cache reports table locks instead of waiting
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo := NewUserRepository(db)
	ctx := context.Background()
	u := createUser(t, repo, "a@x.com", "alice")
	require.NoError(t, repo.SetRefreshToken(ctx, u.ID, "t1"))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := repo.SwapRefreshToken(ctx, u.ID, "t1", "next")
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}

func TestUserRepository_Mutations(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()
	u := createUser(t, repo, "a@x.com", "alice")

	require.NoError(t, repo.MarkEmailVerified(ctx, u.ID))
	require.NoError(t, repo.MarkEmailVerified(ctx, u.ID))
	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "new-hash"))
	require.NoError(t, repo.UpdateAvatar(ctx, u.ID, "https://cdn/avatars/1.png"))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Equal(t, "https://cdn/avatars/1.png", got.AvatarURL)

	assert.ErrorIs(t, repo.MarkEmailVerified(ctx, 9999), ErrNotFound)
}

func TestUserRepository_SwapPasswordHash(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()
	u := createUser(t, repo, "a@x.com", "alice")

	ok, err := repo.SwapPasswordHash(ctx, u.ID, u.PasswordHash, "rehashed")
	require.NoError(t, err)
	assert.True(t, ok)

	// stale expected hash: a reset already replaced it
	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "reset-hash"))
	ok, err = repo.SwapPasswordHash(ctx, u.ID, "rehashed", "stale-rehash")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "reset-hash", got.PasswordHash)
}
