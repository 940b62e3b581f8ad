package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/recipe-votes/backend/internal/auth"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "user_id"

// AuthMiddleware rejects requests without a valid session token.
func AuthMiddleware(v auth.Verifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := v.Verify(tokenFrom(c, cookieName))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Must be logged in to vote"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// OptionalAuth sets the user id when a valid token is present and lets the
// request through either way.
func OptionalAuth(v auth.Verifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, err := v.Verify(tokenFrom(c, cookieName)); err == nil {
			c.Set(UserIDKey, userID)
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, if any.
func UserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := raw.(int)
	return id, ok && id > 0
}

// tokenFrom reads a bearer token, falling back to the session cookie.
func tokenFrom(c *gin.Context, cookieName string) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookieName == "" {
		return ""
	}
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return token
}
