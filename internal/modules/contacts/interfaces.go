package contacts

import (
	"context"

	"contacts/internal/domain"
	"contacts/internal/repository"
)

type ContactRepository interface {
	List(ctx context.Context, ownerID int64, f repository.ContactFilter) ([]domain.Contact, int64, error)
	ListAll(ctx context.Context, ownerID int64) ([]domain.Contact, error)
	Search(ctx context.Context, ownerID int64, query string, limit int) ([]domain.Contact, error)
	Get(ctx context.Context, ownerID, id int64) (*domain.Contact, error)
	Create(ctx context.Context, c *domain.Contact) error
	Update(ctx context.Context, ownerID, id int64, fields map[string]any) (*domain.Contact, error)
	Delete(ctx context.Context, ownerID, id int64) (*domain.Contact, error)
}
