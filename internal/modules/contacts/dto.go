package contacts

import (
	"strings"

	"contacts/internal/domain"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// BirthdayWindowDays is how far ahead UpcomingBirthdays looks, today included.
	BirthdayWindowDays = 7
)

type ListFilter struct {
	Page  int
	Limit int
}

type ListResult struct {
	Items []domain.Contact `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type CreateContactRequest struct {
	FirstName   string `json:"first_name" validate:"required,min=2,max=50"`
	LastName    string `json:"last_name" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email,max=100"`
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
	Birthday    string `json:"birthday" validate:"required,datetime=2006-01-02"`
	Notes       string `json:"notes" validate:"max=255"`
}

func (r *CreateContactRequest) normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = normalizeEmail(r.Email)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.Birthday = strings.TrimSpace(r.Birthday)
	r.Notes = strings.TrimSpace(r.Notes)
}

// UpdateContactRequest is a partial update; nil fields are left untouched.
// Phone number and notes are cleared by sending an empty string.
type UpdateContactRequest struct {
	FirstName   *string `json:"first_name" validate:"omitnil,min=2,max=50"`
	LastName    *string `json:"last_name" validate:"omitnil,min=2,max=50"`
	Email       *string `json:"email" validate:"omitnil,email,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitnil,phone"`
	Birthday    *string `json:"birthday" validate:"omitnil,datetime=2006-01-02"`
	Notes       *string `json:"notes" validate:"omitnil,max=255"`
}

func (r *UpdateContactRequest) normalize() {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	r.FirstName = trim(r.FirstName)
	r.LastName = trim(r.LastName)
	r.PhoneNumber = trim(r.PhoneNumber)
	r.Birthday = trim(r.Birthday)
	r.Notes = trim(r.Notes)
	if r.Email != nil {
		v := normalizeEmail(*r.Email)
		r.Email = &v
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
