package repository

import (
	"context"
	"strings"
	"time"

	"contacts/internal/domain"

	"gorm.io/gorm"
)

type ContactFilter struct {
	Limit  int
	Offset int
}

// ContactRepository scopes every query to the owning user.
type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

type contactModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	OwnerID     int64     `gorm:"column:owner_id;not null;uniqueIndex:idx_contacts_owner_email"`
	Owner       userModel `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	FirstName   string    `gorm:"column:first_name;size:50;index;not null"`
	LastName    string    `gorm:"column:last_name;size:50;index;not null"`
	Email       string    `gorm:"column:email;size:100;not null;uniqueIndex:idx_contacts_owner_email"`
	PhoneNumber *string   `gorm:"column:phone_number;size:30"`
	Birthday    time.Time `gorm:"column:birthday;type:date;not null"`
	Notes       *string   `gorm:"column:notes;size:255"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (contactModel) TableName() string { return "contacts" }

func toDomainContact(m contactModel) *domain.Contact {
	c := &domain.Contact{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		Birthday:  domain.DateOf(m.Birthday),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.PhoneNumber != nil {
		c.PhoneNumber = *m.PhoneNumber
	}
	if m.Notes != nil {
		c.Notes = *m.Notes
	}
	return c
}

func toContactModel(c *domain.Contact) contactModel {
	return contactModel{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		FirstName:   strings.TrimSpace(c.FirstName),
		LastName:    strings.TrimSpace(c.LastName),
		Email:       normalizeEmail(c.Email),
		PhoneNumber: nullable(c.PhoneNumber),
		Birthday:    c.Birthday.Time,
		Notes:       nullable(c.Notes),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toDomainContacts(rows []contactModel) []domain.Contact {
	out := make([]domain.Contact, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainContact(m))
	}
	return out
}

// List returns one page of the owner's contacts, newest first, and the
// owner's total.
func (r *ContactRepository) List(ctx context.Context, ownerID int64, f ContactFilter) ([]domain.Contact, int64, error) {
	q := r.db.WithContext(ctx).Model(&contactModel{}).Where("owner_id = ?", ownerID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []contactModel
	if err := q.Order("id DESC").Limit(f.Limit).Offset(f.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toDomainContacts(rows), total, nil
}

// ListAll returns every contact of the owner ordered by name.
func (r *ContactRepository) ListAll(ctx context.Context, ownerID int64) ([]domain.Contact, error) {
	var rows []contactModel
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("last_name, first_name, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainContacts(rows), nil
}

// Search matches query case-insensitively against first name, last name and
// email. LIKE wildcards in query are matched literally.
func (r *ContactRepository) Search(ctx context.Context, ownerID int64, query string, limit int) ([]domain.Contact, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	var rows []contactModel
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where(`(LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern).
		Order("last_name, first_name, id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainContacts(rows), nil
}

func (r *ContactRepository) Get(ctx context.Context, ownerID, id int64) (*domain.Contact, error) {
	var m contactModel
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return toDomainContact(m), nil
}

func (r *ContactRepository) Create(ctx context.Context, c *domain.Contact) error {
	m := toContactModel(c)
	if err := r.db.WithContext(ctx).Omit("Owner").Create(&m).Error; err != nil {
		return translate(err)
	}
	*c = *toDomainContact(m)
	return nil
}

// Update writes the given columns and returns the fresh row.
func (r *ContactRepository) Update(ctx context.Context, ownerID, id int64, fields map[string]any) (*domain.Contact, error) {
	tx := r.db.WithContext(ctx).Model(&contactModel{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(fields)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, ownerID, id)
}

func (r *ContactRepository) Delete(ctx context.Context, ownerID, id int64) (*domain.Contact, error) {
	c, err := r.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	tx := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&contactModel{})
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return c, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
