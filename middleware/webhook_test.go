package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

const testWebhookSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

func signedWebhookRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/identity", WebhookSignatureAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"received": true})
	})
	return r
}

func signPayload(t *testing.T, secret string, msgId string, timestamp string, body []byte) string {
	t.Helper()
	key, err := base64.StdEncoding.DecodeString(secret[len("whsec_"):])
	assert.NoError(t, err)
	mac := hmac.New(sha256.New, key)
	fmt.Fprintf(mac, "%s.%s.%s", msgId, timestamp, body)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func webhookRequest(body []byte, headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/identity", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestWebhookSignatureAuthAcceptsValidSignature(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", testWebhookSecret)
	r := signedWebhookRouter()

	body := []byte(`{"type":"user.created","data":{"id":"user_abc"}}`)
	msgId := "msg_123"
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, webhookRequest(body, map[string]string{
		"svix-id":        msgId,
		"svix-timestamp": timestamp,
		"svix-signature": signPayload(t, testWebhookSecret, msgId, timestamp, body),
	}))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookSignatureAuthAcceptsAnyMatchingEntry(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", testWebhookSecret)
	r := signedWebhookRouter()

	body := []byte(`{"type":"user.created"}`)
	msgId := "msg_123"
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	valid := signPayload(t, testWebhookSecret, msgId, timestamp, body)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, webhookRequest(body, map[string]string{
		"svix-id":        msgId,
		"svix-timestamp": timestamp,
		"svix-signature": "v1,Zm9vYmFy " + valid,
	}))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookSignatureAuthRejectsBadSignature(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", testWebhookSecret)
	r := signedWebhookRouter()

	body := []byte(`{"type":"user.created"}`)
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, webhookRequest(body, map[string]string{
		"svix-id":        "msg_123",
		"svix-timestamp": timestamp,
		"svix-signature": "v1," + base64.StdEncoding.EncodeToString([]byte("not the mac")),
	}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookSignatureAuthRejectsTamperedBody(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", testWebhookSecret)
	r := signedWebhookRouter()

	msgId := "msg_123"
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := signPayload(t, testWebhookSecret, msgId, timestamp, []byte(`{"type":"user.created"}`))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, webhookRequest([]byte(`{"type":"user.deleted"}`), map[string]string{
		"svix-id":        msgId,
		"svix-timestamp": timestamp,
		"svix-signature": signature,
	}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookSignatureAuthRejectsMissingHeaders(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", testWebhookSecret)
	r := signedWebhookRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, webhookRequest([]byte(`{}`), nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookSignatureAuthRejectsStaleTimestamp(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", testWebhookSecret)
	r := signedWebhookRouter()

	body := []byte(`{"type":"user.created"}`)
	msgId := "msg_123"
	timestamp := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, webhookRequest(body, map[string]string{
		"svix-id":        msgId,
		"svix-timestamp": timestamp,
		"svix-signature": signPayload(t, testWebhookSecret, msgId, timestamp, body),
	}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookSignatureAuthFailsWithoutSecret(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "")
	r := signedWebhookRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, webhookRequest([]byte(`{}`), nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
