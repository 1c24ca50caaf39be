package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"contacts/internal/domain"
	"contacts/internal/modules/auth"
	"contacts/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Resolver maps an access token to the caller's identity.
type Resolver interface {
	Resolve(ctx context.Context, accessToken string) (*domain.User, error)
}

// Authenticate requires a bearer access token and stores the resolved user
// under "user", its id under "user_id" and its role under "role".
func Authenticate(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Not authorized")
			c.Abort()
			return
		}

		user, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired")
			} else {
				_ = c.Error(fmt.Errorf("resolve identity: %w", err))
				response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
			}
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("role", string(user.Role))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
