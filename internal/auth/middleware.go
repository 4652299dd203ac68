package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const tokenKey = "bearer_token"

// BearerMiddleware requires an "Authorization: Bearer <token>" header. The token
// is opaque: it is stored on the context for downstream use and never verified.
func BearerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format. Expected: Bearer <token>",
			})
			c.Abort()
			return
		}

		c.Set(tokenKey, parts[1])
		c.Next()
	}
}

// GetToken retrieves the bearer token from the context
func GetToken(c *gin.Context) (string, bool) {
	token, exists := c.Get(tokenKey)
	if !exists {
		return "", false
	}

	s, ok := token.(string)
	return s, ok
}
