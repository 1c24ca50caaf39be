package auth

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrInvalidToken       = errors.New("invalid token")
	ErrVerificationFailed = errors.New("verification failed")
	ErrEmailAlreadyExists = errors.New("email or name already in use")
	ErrAlreadyVerified    = errors.New("verification has already been passed")
	ErrInvalidAvatar      = errors.New("avatar must be a jpeg, png, gif or webp image")
	ErrAvatarTooLarge     = errors.New("avatar is too large")
)
