package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://issuer.example"
	testAudience = "wishly-test"
)

// newSigningKey generates an RSA key pair and a JWKS endpoint serving the
// public half.
func newSigningKey(t *testing.T) (jwk.Key, *httptest.Server) {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	key, err := jwk.FromRaw(raw)
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, "test-key"))
	require.NoError(t, key.Set(jwk.AlgorithmKey, jwa.RS256))

	pub, err := key.PublicKey()
	require.NoError(t, err)
	set := jwk.NewSet()
	require.NoError(t, set.AddKey(pub))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(srv.Close)

	return key, srv
}

func signToken(t *testing.T, key jwk.Key, mutate func(b *jwt.Builder)) string {
	t.Helper()

	b := jwt.NewBuilder().
		Subject("user-123").
		Issuer(testIssuer).
		Audience([]string{testAudience}).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour)).
		Claim("email", "user@example.com").
		Claim("name", "Test User")
	if mutate != nil {
		mutate(b)
	}

	tok, err := b.Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, key))
	require.NoError(t, err)
	return string(signed)
}

func TestVerify_ValidToken(t *testing.T) {
	key, jwks := newSigningKey(t)

	verifier, err := NewTokenVerifier(context.Background(), jwks.URL, testIssuer, testAudience, false)
	require.NoError(t, err)

	claims, err := verifier.Verify(context.Background(), signToken(t, key, nil))
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "Test User", claims.Name)
}

func TestVerify_WrongIssuerRejected(t *testing.T) {
	key, jwks := newSigningKey(t)

	verifier, err := NewTokenVerifier(context.Background(), jwks.URL, testIssuer, testAudience, false)
	require.NoError(t, err)

	token := signToken(t, key, func(b *jwt.Builder) {
		b.Issuer("https://evil.example")
	})

	_, err = verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_ExpiredTokenRejected(t *testing.T) {
	key, jwks := newSigningKey(t)

	verifier, err := NewTokenVerifier(context.Background(), jwks.URL, testIssuer, testAudience, false)
	require.NoError(t, err)

	token := signToken(t, key, func(b *jwt.Builder) {
		b.Expiration(time.Now().Add(-time.Hour))
	})

	_, err = verifier.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_UnknownKeyRejected(t *testing.T) {
	_, jwks := newSigningKey(t)

	// Sign with a key that is not in the published set.
	otherKey, _ := newSigningKey(t)

	verifier, err := NewTokenVerifier(context.Background(), jwks.URL, testIssuer, testAudience, false)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), signToken(t, otherKey, nil))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_GarbageInput(t *testing.T) {
	key, jwks := newSigningKey(t)
	_ = key

	verifier, err := NewTokenVerifier(context.Background(), jwks.URL, testIssuer, testAudience, false)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_SkipVerifyParsesWithoutJWKS(t *testing.T) {
	key, _ := newSigningKey(t)

	verifier, err := NewTokenVerifier(context.Background(), "", "", "", true)
	require.NoError(t, err)

	claims, err := verifier.Verify(context.Background(), signToken(t, key, nil))
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
}

func TestVerify_MissingSubjectRejected(t *testing.T) {
	key, _ := newSigningKey(t)

	verifier, err := NewTokenVerifier(context.Background(), "", "", "", true)
	require.NoError(t, err)

	tok, err := jwt.NewBuilder().
		Issuer(testIssuer).
		Expiration(time.Now().Add(time.Hour)).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, key))
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), string(signed))
	assert.ErrorIs(t, err, ErrInvalidToken)
}
