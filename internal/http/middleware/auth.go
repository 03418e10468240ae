package middleware

import (
	"net/http"
	"strings"

	"caravanas/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// TokenParser validates bearer tokens. services.AuthService implements it.
type TokenParser interface {
	ParseToken(raw string) (services.Claims, error)
}

func abortAuth(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      msg,
		"code":       code,
		"request_id": GetRequestID(c),
	})
}

// AuthRequired rejects requests without a valid Authorization: Bearer token
// and stores userID/userRole in the context.
func AuthRequired(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abortAuth(c, http.StatusUnauthorized, "UNAUTHORIZED", "token ausente")
			return
		}
		claims, err := parser.ParseToken(strings.TrimSpace(raw))
		if err != nil {
			abortAuth(c, http.StatusUnauthorized, "UNAUTHORIZED", "token inválido ou expirado")
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Set(userRoleKey, claims.Role)
		c.Next()
	}
}

// RequireRoles must run after AuthRequired.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		if !allowed[c.GetString(userRoleKey)] {
			abortAuth(c, http.StatusForbidden, "FORBIDDEN", "acesso negado")
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated operator id, or 0.
func GetUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
