package middleware

import (
	"net/http"
	"strings"

	"catalog-admin/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey   = "user_id"
	UserRoleKey = "user_role"
	TokenKey    = "token"
)

// AuthMiddleware validates the bearer token. The raw token is kept on the
// context so calls to the catalog backend can be made on the user's behalf.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		token := parts[1]
		claims, err := utils.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserRoleKey, claims.Role)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// RequireRole lets the request through only for one of the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role, _ := c.Get(UserRoleKey)
		roleStr, _ := role.(string)
		if !allowed[roleStr] {
			c.JSON(http.StatusForbidden, gin.H{"error": "Catalog access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CatalogEditorMiddleware admits admins and catalog editors.
func CatalogEditorMiddleware() gin.HandlerFunc {
	return RequireRole("admin", "catalog_editor")
}
