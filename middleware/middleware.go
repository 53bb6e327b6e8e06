package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/deckprep/backend/config"
)

// GetApiMiddleware picks the authentication middleware for API routes.
// JWT verification of the identity provider's session token is the production
// path; NOOP_AUTH trusts request headers and exists for local development only.
func GetApiMiddleware() gin.HandlerFunc {
	if config.NoopAuthEnabled() {
		slog.Warn("Using noop auth for API routes, do not use in production")
		return NoopApiAuth()
	}
	slog.Info("Using JWT middleware for API routes")
	return JWTBearerTokenAuth()
}
