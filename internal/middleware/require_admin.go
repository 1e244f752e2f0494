package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin s'utilise après AuthRequired
func RequireAdmin(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated"})
		return
	}
	if !user.IsAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin only"})
		return
	}
	c.Next()
}
