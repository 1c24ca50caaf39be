package contacts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"contacts/internal/domain"
	"contacts/internal/pkg/validator"
	"contacts/internal/repository"
)

type Service struct {
	repo ContactRepository
}

func NewService(repo ContactRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, ownerID int64, f ListFilter) (*ListResult, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > MaxLimit {
		f.Limit = DefaultLimit
	}

	items, total, err := s.repo.List(ctx, ownerID, repository.ContactFilter{
		Limit:  f.Limit,
		Offset: (f.Page - 1) * f.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	return &ListResult{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id int64) (*domain.Contact, error) {
	c, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, mapErr("get contact", err)
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, ownerID int64, req CreateContactRequest) (*domain.Contact, error) {
	req.normalize()
	if errs := validator.Validate(req); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}
	birthday, err := domain.ParseDate(req.Birthday)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"birthday": "datetime"}}
	}

	c := &domain.Contact{
		OwnerID:     ownerID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Birthday:    birthday,
		Notes:       req.Notes,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, mapErr("create contact", err)
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, ownerID, id int64, req UpdateContactRequest) (*domain.Contact, error) {
	req.normalize()
	if errs := validator.Validate(req); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	fields := map[string]any{}
	if req.FirstName != nil {
		fields["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		fields["last_name"] = *req.LastName
	}
	if req.Email != nil {
		fields["email"] = *req.Email
	}
	if req.PhoneNumber != nil {
		fields["phone_number"] = nullable(*req.PhoneNumber)
	}
	if req.Birthday != nil {
		birthday, err := domain.ParseDate(*req.Birthday)
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{"birthday": "datetime"}}
		}
		fields["birthday"] = birthday.Time
	}
	if req.Notes != nil {
		fields["notes"] = nullable(*req.Notes)
	}
	if len(fields) == 0 {
		return nil, ErrNothingToUpdate
	}

	c, err := s.repo.Update(ctx, ownerID, id, fields)
	if err != nil {
		return nil, mapErr("update contact", err)
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id int64) (*domain.Contact, error) {
	c, err := s.repo.Delete(ctx, ownerID, id)
	if err != nil {
		return nil, mapErr("delete contact", err)
	}
	return c, nil
}

// Search finds the owner's contacts whose first name, last name or email
// contains query, ignoring case. At most MaxLimit contacts are returned.
func (s *Service) Search(ctx context.Context, ownerID int64, query string) ([]domain.Contact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Fields: map[string]string{"query": "required"}}
	}

	found, err := s.repo.Search(ctx, ownerID, query, MaxLimit)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	return found, nil
}

// UpcomingBirthdays returns the contacts whose next birthday falls within
// BirthdayWindowDays of now's calendar day, soonest first. The birth year is
// ignored.
func (s *Service) UpcomingBirthdays(ctx context.Context, ownerID int64, now time.Time) ([]domain.Contact, error) {
	all, err := s.repo.ListAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	today := domain.DateOf(now)
	last := today.AddDate(0, 0, BirthdayWindowDays)

	type upcoming struct {
		contact domain.Contact
		next    domain.Date
	}
	var hits []upcoming
	for _, c := range all {
		next := nextBirthday(c.Birthday, today)
		if !next.After(last) {
			hits = append(hits, upcoming{contact: c, next: next})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].next.Before(hits[j].next.Time) })

	out := make([]domain.Contact, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.contact)
	}
	return out, nil
}

// nextBirthday is the first anniversary of birthday on or after today.
func nextBirthday(birthday, today domain.Date) domain.Date {
	next := anniversary(birthday, today.Year())
	if next.Before(today.Time) {
		next = anniversary(birthday, today.Year()+1)
	}
	return next
}

// anniversary places birthday in year. Feb 29 falls on Feb 28 in common years.
func anniversary(birthday domain.Date, year int) domain.Date {
	day := birthday.Day()
	if birthday.Month() == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return domain.NewDate(year, birthday.Month(), day)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func mapErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrContactNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrContactExists
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
