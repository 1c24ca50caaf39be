package repository

import (
	"context"
	"strings"
	"time"

	"contacts/internal/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userModel struct {
	ID            int64     `gorm:"column:id;primaryKey"`
	Email         string    `gorm:"column:email;size:255;uniqueIndex;not null"`
	Name          string    `gorm:"column:name;size:100;uniqueIndex;not null"`
	PasswordHash  string    `gorm:"column:password_hash;not null"`
	AvatarURL     *string   `gorm:"column:avatar_url"`
	RefreshToken  *string   `gorm:"column:refresh_token"`
	EmailVerified bool      `gorm:"column:email_verified;not null;default:false"`
	Role          string    `gorm:"column:role;size:20;not null;default:user"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

func toDomainUser(m userModel) *domain.User {
	var avatar, refresh string
	if m.AvatarURL != nil {
		avatar = *m.AvatarURL
	}
	if m.RefreshToken != nil {
		refresh = *m.RefreshToken
	}

	return &domain.User{
		ID:            m.ID,
		Email:         m.Email,
		Name:          m.Name,
		PasswordHash:  m.PasswordHash,
		AvatarURL:     avatar,
		RefreshToken:  refresh,
		EmailVerified: m.EmailVerified,
		Role:          domain.UserRole(m.Role),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toUserModel(u *domain.User) userModel {
	role := u.Role
	if role == "" {
		role = domain.RoleUser
	}

	return userModel{
		ID:            u.ID,
		Email:         normalizeEmail(u.Email),
		Name:          strings.TrimSpace(u.Name),
		PasswordHash:  u.PasswordHash,
		AvatarURL:     nullable(u.AvatarURL),
		RefreshToken:  nullable(u.RefreshToken),
		EmailVerified: u.EmailVerified,
		Role:          string(role),
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	m := toUserModel(u)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return translate(err)
	}
	*u = *toDomainUser(m)
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m userModel
	tx := r.db.WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		First(&m)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}
	return toDomainUser(m), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var m userModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, translate(tx.Error)
	}
	return toDomainUser(m), nil
}

// SwapRefreshToken replaces the stored refresh token with next only if it
// still equals expected. It reports whether the swap happened.
func (r *UserRepository) SwapRefreshToken(ctx context.Context, id int64, expected, next string) (bool, error) {
	if expected == "" {
		return false, nil
	}
	tx := r.db.WithContext(ctx).Model(&userModel{}).
		Where("id = ? AND refresh_token = ?", id, expected).
		Update("refresh_token", nullable(next))
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

// SetRefreshToken overwrites the stored refresh token; "" clears it.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id int64, token string) error {
	return r.updateColumn(ctx, id, "refresh_token", nullable(token))
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, id int64) error {
	return r.updateColumn(ctx, id, "email_verified", true)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return r.updateColumn(ctx, id, "password_hash", hash)
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id int64, url string) error {
	return r.updateColumn(ctx, id, "avatar_url", nullable(url))
}

// SwapPasswordHash upgrades the stored hash only while it still equals
// expected, so a password changed in the meantime is left alone.
func (r *UserRepository) SwapPasswordHash(ctx context.Context, id int64, expected, next string) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&userModel{}).
		Where("id = ? AND password_hash = ?", id, expected).
		Update("password_hash", next)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *UserRepository) updateColumn(ctx context.Context, id int64, column string, value any) error {
	tx := r.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", id).Update(column, value)
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nullable(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
