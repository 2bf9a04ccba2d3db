package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(payload []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"event":"charge.success","data":{"reference":"HCA-01J"}}`)
	secret := "sk_test_secret"

	assert.True(t, VerifySignature(payload, sign(payload, secret), secret))
	assert.False(t, VerifySignature(payload, sign(payload, "other-secret"), secret))
	assert.False(t, VerifySignature([]byte(`{"tampered":true}`), sign(payload, secret), secret))
	assert.False(t, VerifySignature(payload, "", secret))
	assert.False(t, VerifySignature(payload, sign(payload, secret), ""))
	assert.False(t, VerifySignature(payload, "not-hex-at-all", secret))
}

func TestNewReference(t *testing.T) {
	a := NewReference()
	b := NewReference()

	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "HCA-")
	assert.Len(t, a, 4+26) // prefix + ULID
}
