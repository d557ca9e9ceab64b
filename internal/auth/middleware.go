package auth

import (
	"net/http"
	"strings"

	"sociogram/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware requires a valid Bearer session token and stores the
// authenticated user ID in the request context under "userID".
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		userID, purpose, err := jwt.ParseToken(tokenString)
		if err != nil || purpose != "" {
			// Recovery tokens are not session tokens.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		// EventSource and browser websockets cannot set headers.
		return c.Query("token")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	// The original clients sometimes send the bare token.
	if len(parts) == 1 {
		return parts[0]
	}
	return ""
}
