package middleware

import (
	"net/http"

	"agencyblog/internal/identity"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	// UserIDKey holds the caller's user id in the gin context; absent for anonymous callers.
	UserIDKey = "user_id"
	// SessionUserKey is the cookie-session field set by the site's login flow.
	SessionUserKey = "user_id"
)

// Identify resolves the caller from a bearer token, falling back to the cookie session.
// It never rejects a request: an unusable credential just leaves the caller anonymous.
func Identify(adapter identity.Adapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			if userID, err := adapter.Resolve(c.Request.Context(), header); err == nil {
				c.Set(UserIDKey, userID)
			}
			c.Next()
			return
		}

		session := sessions.Default(c)
		if userID, ok := session.Get(SessionUserKey).(string); ok && userID != "" {
			c.Set(UserIDKey, userID)
		}
		c.Next()
	}
}

// AuthRequired rejects anonymous callers with 401.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "sign in to continue"})
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the caller's id, or "" when anonymous.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
