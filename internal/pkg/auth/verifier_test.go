package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func mintToken(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func baseClaims() *Claims {
	return &Claims{
		Email: "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestVerifyValidToken(t *testing.T) {
	v, err := NewVerifier(Config{Secret: testSecret})
	require.NoError(t, err)

	want := baseClaims()
	got, err := v.Verify(mintToken(t, testSecret, want))
	require.NoError(t, err)
	assert.Equal(t, want.Subject, got.Subject)
	assert.Equal(t, "user@example.com", got.Email)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	v, err := NewVerifier(Config{Secret: testSecret})
	require.NoError(t, err)

	expired := baseClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noSubject := baseClaims()
	noSubject.Subject = ""

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not.a.token",
		"wrong secret": mintToken(t, "other-secret", baseClaims()),
		"expired":      mintToken(t, testSecret, expired),
		"no subject":   mintToken(t, testSecret, noSubject),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			assert.Error(t, err)
		})
	}
}

func TestVerifyRejectsWrongAlgorithm(t *testing.T) {
	v, err := NewVerifier(Config{Secret: testSecret})
	require.NoError(t, err)

	// alg=none tokens must never pass.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, baseClaims())
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Verify(signed)
	assert.Error(t, err)
}

func TestVerifyEnforcesIssuerAndAudience(t *testing.T) {
	v, err := NewVerifier(Config{Secret: testSecret, Issuer: "https://auth.example.com", Audience: "authenticated"})
	require.NoError(t, err)

	good := baseClaims()
	good.Issuer = "https://auth.example.com"
	good.Audience = jwt.ClaimStrings{"authenticated"}
	_, err = v.Verify(mintToken(t, testSecret, good))
	assert.NoError(t, err)

	bad := baseClaims()
	bad.Issuer = "https://evil.example.com"
	bad.Audience = jwt.ClaimStrings{"authenticated"}
	_, err = v.Verify(mintToken(t, testSecret, bad))
	assert.Error(t, err)
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier(Config{})
	assert.Error(t, err)
}
