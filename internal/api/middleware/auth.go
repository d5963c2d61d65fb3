package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Shoshak/album-ranking-v2/internal/rounds"
)

// Identity keys set on the gin context by RequireAuth.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxUserRole = "user_role"
)

// Authenticator resolves a bearer token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (rounds.Identity, error)
}

// RequireAuth ensures the request carries a valid session token via Header OR Query Param.
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		// 1. Try to get the token from the "Authorization" header
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		// 2. Fall back to "?token=..." for links opened outside the app
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid token"})
			return
		}

		id, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			if rounds.KindOf(err) == nil {
				slog.Error("authentication failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
				_ = c.Error(err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": rounds.Message(err)})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": rounds.Message(err)})
			return
		}

		role := RoleMember
		if id.Admin {
			role = RoleAdmin
		}
		c.Set(CtxUserID, id.TelegramID)
		c.Set(CtxUsername, id.Username)
		c.Set(CtxUserRole, role)
		c.Next()
	}
}
