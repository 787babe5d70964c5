package auth

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by Middleware.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// Middleware accepts a bearer JWT issued by ts or one of the static tokens.
// Static tokens act with RoleService and no user id.
func Middleware(ts *TokenService, staticTokens []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		if ts != nil {
			if claims, err := ts.Parse(tokenStr); err == nil {
				c.Set(ContextUserID, claims.Subject)
				c.Set(ContextRole, claims.Role)
				c.Next()
				return
			}
		}

		if slices.Contains(staticTokens, tokenStr) {
			c.Set(ContextUserID, "")
			c.Set(ContextRole, RoleService)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	}
}

// RequireRole rejects callers whose role is not listed.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, c.GetString(ContextRole)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

func UserID(c *gin.Context) string { return c.GetString(ContextUserID) }

func Role(c *gin.Context) string { return c.GetString(ContextRole) }

// Privileged callers may act on records they do not own.
func Privileged(c *gin.Context) bool {
	role := Role(c)
	return role == RoleAdmin || role == RoleService
}
