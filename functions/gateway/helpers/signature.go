package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifyWebhookSignature checks the hex-encoded HMAC-SHA256 signature a
// billing platform sends over the raw request body. An optional "sha256="
// prefix on the header value is tolerated. Comparison is constant time.
func VerifyWebhookSignature(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	received := strings.TrimPrefix(signature, "sha256=")
	return hmac.Equal([]byte(expected), []byte(received))
}

// SignWebhookPayload produces the signature VerifyWebhookSignature expects,
// used by tests and local tooling to build valid requests.
func SignWebhookPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
