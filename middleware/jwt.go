package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// setContextParameters pulls the verified subject id and email out of the
// session token claims. The token itself was issued by the identity provider;
// we only ever consume its verified output.
func setContextParameters(c *gin.Context, token *jwt.Token) error {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		slog.Warn("token claims have unexpected shape")
		return fmt.Errorf("token is invalid")
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		slog.Warn("token has no subject claim", "error", err)
		return fmt.Errorf("token is invalid")
	}

	email, _ := claims["email"].(string)
	if email == "" {
		slog.Warn("token has no email claim", "subject", subject)
		return fmt.Errorf("token is invalid")
	}

	c.Set(USER_EXTERNAL_ID_KEY, subject)
	c.Set(USER_EMAIL_KEY, email)
	return nil
}

// JWTBearerTokenAuth verifies the identity provider's RS256 session token
// from the Authorization header and records the caller's external id and
// email on the request context.
func JWTBearerTokenAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			c.String(http.StatusUnauthorized, "No Authorization header provided")
			c.Abort()
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.String(http.StatusUnauthorized, "Could not find bearer token in Authorization header")
			c.Abort()
			return
		}

		jwtPublicKey := os.Getenv("JWT_PUBLIC_KEY")
		if jwtPublicKey == "" {
			slog.Error("No JWT_PUBLIC_KEY environment variable provided")
			c.String(http.StatusInternalServerError, "Error occurred while reading public key")
			c.Abort()
			return
		}

		publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(jwtPublicKey))
		if err != nil {
			slog.Error("error while parsing public key", "error", err)
			c.String(http.StatusInternalServerError, "Error occurred while parsing public key")
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return publicKey, nil
		})
		if err != nil || !token.Valid {
			slog.Warn("can't verify session token", "error", err)
			c.String(http.StatusUnauthorized, "Authorization header is invalid")
			c.Abort()
			return
		}

		if err := setContextParameters(c, token); err != nil {
			c.String(http.StatusUnauthorized, "Failed to parse token")
			c.Abort()
			return
		}

		c.Next()
	}
}

const USER_EXTERNAL_ID_KEY = "user_external_id"
const USER_EMAIL_KEY = "user_email"
