// Package authtest provides an in-process identity provider signing key for
// tests: it publishes a JWKS document and signs RS256 tokens with a kid.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"Gallery/internal/auth"
)

// Signer holds an RSA key published under KeyID
type Signer struct {
	Key   *rsa.PrivateKey
	KeyID string
}

// NewSigner generates a fresh 2048-bit RSA signing key
func NewSigner(t testing.TB, kid string) *Signer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	return &Signer{Key: key, KeyID: kid}
}

// JWKS returns the JSON Web Key Set publishing the signer's public key
func (s *Signer) JWKS(t testing.TB) []byte {
	t.Helper()

	pub, err := jwk.FromRaw(&s.Key.PublicKey)
	if err != nil {
		t.Fatalf("failed to build JWK: %v", err)
	}
	if err := pub.Set(jwk.KeyIDKey, s.KeyID); err != nil {
		t.Fatalf("failed to set kid: %v", err)
	}
	if err := pub.Set(jwk.AlgorithmKey, jwa.RS256); err != nil {
		t.Fatalf("failed to set alg: %v", err)
	}
	if err := pub.Set(jwk.KeyUsageKey, "sig"); err != nil {
		t.Fatalf("failed to set use: %v", err)
	}

	set := jwk.NewSet()
	if err := set.AddKey(pub); err != nil {
		t.Fatalf("failed to add key to set: %v", err)
	}

	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("failed to marshal JWKS: %v", err)
	}
	return data
}

// KeySet returns a parsed key set containing only this signer's key
func (s *Signer) KeySet(t testing.TB) *auth.KeySet {
	t.Helper()

	ks, err := auth.ParseKeySet(s.JWKS(t))
	if err != nil {
		t.Fatalf("failed to parse key set: %v", err)
	}
	return ks
}

// JWKSServer serves the signer's JWKS at any path
func (s *Signer) JWKSServer(t testing.TB) *httptest.Server {
	t.Helper()

	body := s.JWKS(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// Sign produces an RS256 token carrying the signer's kid
func (s *Signer) Sign(t testing.TB, claims jwt.Claims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.KeyID
	signed, err := token.SignedString(s.Key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// IDTokenClaims builds ID token claims for username, addressed to clientID
func IDTokenClaims(clientID, username string, expiresAt time.Time) *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sub-" + username,
			Issuer:    "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_test",
			Audience:  jwt.ClaimStrings{clientID},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(expiresAt.Add(-time.Hour)),
		},
		Username: username,
		TokenUse: auth.TokenUseID,
	}
}

// AccessTokenClaims builds access token claims the way Cognito shapes them:
// no aud, client_id instead.
func AccessTokenClaims(clientID, username string, expiresAt time.Time) *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "sub-" + username,
			Issuer:    "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_test",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(expiresAt.Add(-time.Hour)),
		},
		TokenUse: auth.TokenUseAccess,
		ClientID: clientID,
	}
}
