package auth

import (
	"sociogram/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// OptionalAuthMiddleware inspects for a token and sets the userID if present and valid,
// but does not fail if the token is missing or invalid.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := extractBearerToken(c); tokenString != "" {
			if userID, purpose, err := jwt.ParseToken(tokenString); err == nil && purpose == "" {
				c.Set("userID", userID)
			}
		}
		c.Next()
	}
}
