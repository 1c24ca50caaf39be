package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"contacts/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleContact(ownerID int64, first, email string) *domain.Contact {
	return &domain.Contact{
		OwnerID:     ownerID,
		FirstName:   first,
		LastName:    "Stone",
		Email:       email,
		PhoneNumber: "(555) 123-4567",
		Birthday:    domain.NewDate(1990, time.April, 12),
	}
}

func TestContactRepository_CRUD(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	repo := NewContactRepository(db)
	ctx := context.Background()

	owner := createUser(t, users, "owner@x.com", "owner")
	other := createUser(t, users, "other@x.com", "other")

	c := sampleContact(owner.ID, "Bob", "Bob@Mail.com")
	require.NoError(t, repo.Create(ctx, c))
	assert.NotZero(t, c.ID)
	assert.Equal(t, "bob@mail.com", c.Email)

	got, err := repo.Get(ctx, owner.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.FirstName)
	assert.Equal(t, "(555) 123-4567", got.PhoneNumber)
	assert.Equal(t, "1990-04-12", got.Birthday.String())
	assert.Empty(t, got.Notes)

	_, err = repo.Get(ctx, other.ID, c.ID)
	assert.ErrorIs(t, err, ErrNotFound, "contacts are private to their owner")

	updated, err := repo.Update(ctx, owner.ID, c.ID, map[string]any{"first_name": "Robert", "phone_number": nil})
	require.NoError(t, err)
	assert.Equal(t, "Robert", updated.FirstName)
	assert.Empty(t, updated.PhoneNumber)

	_, err = repo.Update(ctx, other.ID, c.ID, map[string]any{"first_name": "Mallory"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Delete(ctx, other.ID, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := repo.Delete(ctx, owner.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, deleted.ID)

	_, err = repo.Get(ctx, owner.ID, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContactRepository_UniqueEmailPerOwner(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	repo := NewContactRepository(db)
	ctx := context.Background()

	owner := createUser(t, users, "owner@x.com", "owner")
	other := createUser(t, users, "other@x.com", "other")

	require.NoError(t, repo.Create(ctx, sampleContact(owner.ID, "Bob", "bob@mail.com")))
	err := repo.Create(ctx, sampleContact(owner.ID, "Rob", "BOB@mail.com"))
	assert.ErrorIs(t, err, ErrDuplicate)

	assert.NoError(t, repo.Create(ctx, sampleContact(other.ID, "Bob", "bob@mail.com")))
}

func TestContactRepository_ListPagination(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	repo := NewContactRepository(db)
	ctx := context.Background()

	owner := createUser(t, users, "owner@x.com", "owner")
	other := createUser(t, users, "other@x.com", "other")

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, sampleContact(owner.ID, fmt.Sprintf("c%d", i), fmt.Sprintf("c%d@x.com", i))))
	}
	require.NoError(t, repo.Create(ctx, sampleContact(other.ID, "foreign", "f@x.com")))

	page, total, err := repo.List(ctx, owner.ID, ContactFilter{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, "c4", page[0].FirstName)

	last, _, err := repo.List(ctx, owner.ID, ContactFilter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "c0", last[0].FirstName)

	all, err := repo.ListAll(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestContactRepository_Search(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	repo := NewContactRepository(db)
	ctx := context.Background()

	owner := createUser(t, users, "owner@x.com", "owner")
	other := createUser(t, users, "other@x.com", "other")

	require.NoError(t, repo.Create(ctx, sampleContact(owner.ID, "Alice", "alice@mail.com")))
	require.NoError(t, repo.Create(ctx, sampleContact(owner.ID, "Bob", "bob_smith@mail.com")))
	require.NoError(t, repo.Create(ctx, sampleContact(owner.ID, "Carl", "bobxsmith@mail.com")))
	require.NoError(t, repo.Create(ctx, sampleContact(other.ID, "Alice", "alice@mail.com")))

	found, err := repo.Search(ctx, owner.ID, "ALICE", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, owner.ID, found[0].OwnerID)

	found, err = repo.Search(ctx, owner.ID, "bob_", 10)
	require.NoError(t, err)
	require.Len(t, found, 1, "underscore is not a wildcard")
	assert.Equal(t, "Bob", found[0].FirstName)

	found, err = repo.Search(ctx, owner.ID, "stone", 2)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}
