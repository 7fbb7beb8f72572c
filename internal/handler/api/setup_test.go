//go:build unit

package api_test

import (
	"net/http"

	"handicraft-store/internal/domain/user"
	"handicraft-store/internal/handler/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// fakeAuth authenticates any request carrying an Authorization header. The
// role comes from X-Test-Role and defaults to customer.
func fakeAuth(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Unauthorized"}})
			return
		}
		role := user.RoleCustomer
		if r := c.GetHeader("X-Test-Role"); r != "" {
			role = user.Role(r)
		}
		middleware.SetIdentity(c, userID, role)
		c.Next()
	}
}
