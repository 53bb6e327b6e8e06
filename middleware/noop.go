package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NoopApiAuth takes the caller's identity from plain request headers.
func NoopApiAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		externalId := c.GetHeader("X-Deckprep-User-Id")
		email := c.GetHeader("X-Deckprep-User-Email")
		if externalId == "" || email == "" {
			c.String(http.StatusUnauthorized, "Missing X-Deckprep-User-Id or X-Deckprep-User-Email header")
			c.Abort()
			return
		}
		c.Set(USER_EXTERNAL_ID_KEY, externalId)
		c.Set(USER_EMAIL_KEY, email)
		c.Next()
	}
}
