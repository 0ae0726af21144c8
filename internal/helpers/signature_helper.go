package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const SignaturePrefix = "HMACSHA256="

// WebhookSigner signs and verifies payment webhook bodies:
// HMACSHA256=<base64(hmac_sha256(secret, body))>.
type WebhookSigner struct {
	SecretKey string
}

func NewWebhookSigner(secretKey string) *WebhookSigner {
	return &WebhookSigner{SecretKey: secretKey}
}

func (w *WebhookSigner) GenerateSignature(body []byte) string {
	mac := hmac.New(sha256.New, []byte(w.SecretKey))
	mac.Write(body)
	return SignaturePrefix + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether header carries a valid signature for body. An
// unconfigured secret rejects everything.
func (w *WebhookSigner) Verify(body []byte, header string) bool {
	if w.SecretKey == "" || !strings.HasPrefix(header, SignaturePrefix) {
		return false
	}
	expected := w.GenerateSignature(body)
	return hmac.Equal([]byte(expected), []byte(header))
}
