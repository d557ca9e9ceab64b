package auth

import (
	"net/http"

	"sociogram/backend/internal/database"
	"sociogram/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// ActiveUserMiddleware rejects requests whose token belongs to a tombstoned
// account. Soft-deleted users keep valid tokens until expiry, so the row has
// to be checked. It must be used AFTER the standard AuthMiddleware.
func ActiveUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			// This should not happen if AuthMiddleware is used before it
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		var user models.User
		if err := database.DB.First(&user, userID.(uint)).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
			return
		}

		c.Next()
	}
}
