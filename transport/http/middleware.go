package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/veritick/veritick/ports"
)

// OperatorAuth creates middleware that validates operator bearer tokens
// and checks they are bound to the running generator session.
func OperatorAuth(tokenizer ports.OperatorTokenizer, sessionID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		if len(auth) < 8 || auth[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		token := auth[7:]

		boundSession, err := tokenizer.VerifyOperatorToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		if boundSession != sessionID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token bound to another session"})
			return
		}

		c.Set("sessionID", boundSession)

		c.Next()
	}
}
