package auth

import "contacts/internal/domain"

type SignupRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=10"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=10"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6,max=10"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type LoginResult struct {
	User *domain.User
	TokenPair
}

type UserPublic struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

func toPublic(u *domain.User) UserPublic {
	return UserPublic{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		AvatarURL:     u.AvatarURL,
		Role:          string(u.Role),
		EmailVerified: u.EmailVerified,
	}
}
