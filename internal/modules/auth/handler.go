package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"contacts/internal/domain"
	"contacts/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
	baseURL string
}

// NewHandler creates a new auth handler. baseURL prefixes links in outgoing
// emails; when empty it is derived from the request.
func NewHandler(service *Service, baseURL string) *Handler {
	return &Handler{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup, mw ...gin.HandlerFunc) {
	users := v1.Group("/users", mw...)
	{
		users.POST("/signup", h.Signup)
		users.POST("/login", h.Login)
		users.POST("/refresh", h.Refresh)
		users.GET("/verify/:token", h.ConfirmEmail)
		users.POST("/verify", h.ResendVerification)
		users.POST("/password/forgot", h.ForgotPassword)
		users.POST("/password/reset", h.ResetPassword)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	users := protected.Group("/users")
	{
		users.POST("/logout", h.Logout)
		users.GET("/current", h.Current)
		users.PATCH("/avatars", h.UpdateAvatar)
	}
}

// RegisterAdminRoutes expects the group to be guarded by an admin role check.
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/users/:id", h.GetUser)
}

// Signup registers a new account and sends the verification email.
// @Summary		Sign up
// @Tags		Users
// @Param		request	body	SignupRequest	true	"name, email, password"
// @Success		201	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}
// @Failure		409	{object}	map[string]interface{}
// @Router		/users/signup [POST]
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.Signup(c.Request.Context(), req, h.linkBase(c))
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "Email or name is already in use")
			return
		}
		h.internalError(c, "signup", err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": toPublic(user)})
}

// Login exchanges credentials for an access/refresh token pair.
// @Summary		Log in
// @Tags		Users
// @Param		request	body	LoginRequest	true	"email, password"
// @Success		200	{object}	map[string]interface{}
// @Failure		401	{object}	map[string]interface{}
// @Failure		403	{object}	map[string]interface{}
// @Router		/users/login [POST]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email or password is incorrect")
		case errors.Is(err, ErrEmailNotConfirmed):
			response.Error(c, http.StatusForbidden, "EMAIL_NOT_CONFIRMED", "Email is not confirmed")
		default:
			h.internalError(c, "login", err)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":          toPublic(result.User),
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
	})
}

// @Summary		Rotate tokens
// @Tags		Users
// @Param		request	body	RefreshRequest	true	"refresh_token"
// @Success		200	{object}	map[string]interface{}
// @Failure		401	{object}	map[string]interface{}
// @Router		/users/refresh [POST]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			invalidToken(c)
			return
		}
		h.internalError(c, "refresh", err)
		return
	}

	response.Success(c, http.StatusOK, pair)
}

func (h *Handler) ConfirmEmail(c *gin.Context) {
	err := h.service.ConfirmEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidToken):
			invalidToken(c)
		case errors.Is(err, ErrVerificationFailed):
			response.Error(c, http.StatusNotFound, "VERIFICATION_FAILED", "User not found")
		default:
			h.internalError(c, "confirm email", err)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Verification successful"})
}

func (h *Handler) ResendVerification(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	err := h.service.ResendVerification(c.Request.Context(), req.Email, h.linkBase(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "User not found")
		case errors.Is(err, ErrAlreadyVerified):
			response.Error(c, http.StatusBadRequest, "ALREADY_VERIFIED", "Verification has already been passed")
		default:
			h.internalError(c, "resend verification", err)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Verification email sent"})
}

// ForgotPassword answers with the same message whether or not the email is
// registered.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), req.Email, h.linkBase(c)); err != nil {
		h.internalError(c, "request password reset", err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "If an account with that email exists, a password reset link has been sent",
	})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			invalidToken(c)
			return
		}
		h.internalError(c, "reset password", err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Password has been reset"})
}

func (h *Handler) Logout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.service.Logout(c.Request.Context(), user.ID); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			invalidToken(c)
			return
		}
		h.internalError(c, "logout", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Current(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, toPublic(user))
}

// UpdateAvatar replaces the avatar from the multipart field "avatar".
// @Summary		Update avatar
// @Tags		Users
// @Security	BearerAuth
// @Accept		multipart/form-data
// @Param		avatar	formData	file	true	"jpeg, png, gif or webp, up to 5 MB"
// @Success		200	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}
// @Router		/users/avatars [PATCH]
func (h *Handler) UpdateAvatar(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "avatar file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "cannot read avatar file")
		return
	}
	defer file.Close()

	url, err := h.service.UpdateAvatar(c.Request.Context(), user, file, fileHeader.Size)
	if err != nil {
		switch {
		case errors.Is(err, ErrAvatarTooLarge):
			response.Error(c, http.StatusBadRequest, "FILE_TOO_LARGE", "Avatar must not exceed 5 MB")
		case errors.Is(err, ErrInvalidAvatar):
			response.Error(c, http.StatusBadRequest, "INVALID_FILE_TYPE", err.Error())
		default:
			h.internalError(c, "update avatar", err)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"avatar_url": url})
}

func (h *Handler) GetUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid user id")
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "User not found")
			return
		}
		h.internalError(c, "get user", err)
		return
	}

	response.Success(c, http.StatusOK, toPublic(user))
}

func (h *Handler) linkBase(c *gin.Context) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

func (h *Handler) internalError(c *gin.Context, op string, err error) {
	_ = c.Error(fmt.Errorf("%s: %w", op, err))
	response.Internal(c)
}

func invalidToken(c *gin.Context) {
	response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired")
}

func currentUser(c *gin.Context) (*domain.User, bool) {
	v, exists := c.Get("user")
	user, ok := v.(*domain.User)
	if !exists || !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Not authorized")
		return nil, false
	}
	return user, true
}
