package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vanshpatelx/Opinex/internal/token"
)

// Verifier checks a bearer token and returns its claims.
type Verifier interface {
	Parse(tokenString string) (*token.Claims, error)
}

// RequireAuth guards a route group with stateless token verification.
// The verified claims land in the gin context under "userID", "email",
// and "type".
func RequireAuth(verifier Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "missing bearer token",
			})
			return
		}

		claims, err := verifier.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "invalid token",
			})
			return
		}

		c.Set("userID", claims.ID)
		c.Set("email", claims.Email)
		c.Set("type", claims.Type)
		c.Next()
	}
}
