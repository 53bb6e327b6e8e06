package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

// webhookTimestampTolerance bounds how stale a signed delivery may be.
const webhookTimestampTolerance = 5 * time.Minute

// WebhookSignatureAuth verifies svix-style signatures on identity provider
// deliveries: HMAC-SHA256 over "id.timestamp.body" with the shared secret
// from CLERK_WEBHOOK_SECRET. The body is restored on the request so handlers
// can still bind it.
func WebhookSignatureAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := os.Getenv("CLERK_WEBHOOK_SECRET")
		if secret == "" {
			slog.Error("No CLERK_WEBHOOK_SECRET environment variable provided")
			c.String(http.StatusInternalServerError, "Webhook secret is not configured")
			c.Abort()
			return
		}

		msgId := c.GetHeader("svix-id")
		msgTimestamp := c.GetHeader("svix-timestamp")
		msgSignature := c.GetHeader("svix-signature")
		if msgId == "" || msgTimestamp == "" || msgSignature == "" {
			slog.Warn("webhook delivery missing signature headers")
			c.String(http.StatusUnauthorized, "Missing webhook signature headers")
			c.Abort()
			return
		}

		timestamp := cast.ToInt64(msgTimestamp)
		if timestamp == 0 {
			c.String(http.StatusUnauthorized, "Invalid webhook timestamp")
			c.Abort()
			return
		}
		age := time.Since(time.Unix(timestamp, 0))
		if age > webhookTimestampTolerance || age < -webhookTimestampTolerance {
			slog.Warn("webhook timestamp outside tolerance", "timestamp", timestamp)
			c.String(http.StatusUnauthorized, "Webhook timestamp outside tolerance")
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			slog.Error("error reading webhook body", "error", err)
			c.String(http.StatusInternalServerError, "Error reading request body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		if !verifyWebhookSignature(secret, msgId, msgTimestamp, body, msgSignature) {
			slog.Warn("webhook signature verification failed", "msgId", msgId)
			c.String(http.StatusUnauthorized, "Invalid webhook signature")
			c.Abort()
			return
		}

		c.Next()
	}
}

// verifyWebhookSignature checks every "v1,<base64>" entry in the signature
// header against the expected MAC in constant time.
func verifyWebhookSignature(secret string, msgId string, timestamp string, body []byte, signatureHeader string) bool {
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, "whsec_"))
	if err != nil {
		slog.Error("webhook secret is not valid base64", "error", err)
		return false
	}

	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.%s", msgId, timestamp, body)
	expected := mac.Sum(nil)

	for _, candidate := range strings.Fields(signatureHeader) {
		version, sig, found := strings.Cut(candidate, ",")
		if !found || version != "v1" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return true
		}
	}
	return false
}
