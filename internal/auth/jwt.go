package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AlgorithmRS256 is the only signing method the identity provider uses
const AlgorithmRS256 = "RS256"

// Token use values carried in the token_use claim
const (
	TokenUseID     = "id"
	TokenUseAccess = "access"
)

// Claims is the claim set of a provider-issued ID or access token
type Claims struct {
	jwt.RegisteredClaims
	Username        string `json:"cognito:username,omitempty"`
	Email           string `json:"email,omitempty"`
	TokenUse        string `json:"token_use,omitempty"`
	ClientID        string `json:"client_id,omitempty"`
	AccessTokenHash string `json:"at_hash,omitempty"`
}

// UserID returns the username claim, falling back to the subject for
// access tokens, which carry "username" instead of "cognito:username".
func (c *Claims) UserID() string {
	if c.Username != "" {
		return c.Username
	}
	return c.Subject
}

// TokenVerifier verifies a raw token and returns its claims
type TokenVerifier interface {
	Verify(rawToken, accessToken string) (*Claims, error)
}

// Verifier checks token signatures against a KeySet and validates the
// audience and expiry claims.
type Verifier struct {
	keys     *KeySet
	clientID string
	nowFn    func() time.Time
}

// NewVerifier creates a verifier bound to a key set and OAuth client ID
func NewVerifier(keys *KeySet, clientID string) *Verifier {
	return &Verifier{
		keys:     keys,
		clientID: clientID,
		nowFn:    time.Now,
	}
}

// Verify validates rawToken and returns its claims.
// When accessToken is non-empty and the token carries an at_hash claim, the
// hash must match the access token.
// On failure the returned error is an *AuthenticationError of kind
// KindUnknownKeyID, KindSignatureInvalid, KindAudienceMismatch or KindExpired;
// claims are never returned alongside an error.
func (v *Verifier) Verify(rawToken, accessToken string) (*Claims, error) {
	rawToken = strings.TrimSpace(rawToken)

	header, err := ParseJWTHeader(rawToken)
	if err != nil {
		return nil, NewError(KindSignatureInvalid, err)
	}

	publicKey, ok := v.keys.Lookup(header.Kid)
	if !ok {
		return nil, NewError(KindUnknownKeyID, fmt.Errorf("key with kid %q not found", header.Kid))
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{AlgorithmRS256}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.nowFn),
	)

	token, err := parser.ParseWithClaims(rawToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, NewError(KindExpired, err)
		}
		return nil, NewError(KindSignatureInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, NewError(KindSignatureInvalid, fmt.Errorf("invalid claims type"))
	}

	if err := v.validateAudience(claims); err != nil {
		return nil, err
	}

	if accessToken != "" && claims.AccessTokenHash != "" {
		if !constantTimeCompare(claims.AccessTokenHash, AccessTokenHash(accessToken)) {
			return nil, NewError(KindSignatureInvalid, fmt.Errorf("at_hash does not match access token"))
		}
	}

	return claims, nil
}

// validateAudience requires aud to contain the client ID. Access tokens have
// no aud claim and name the client in client_id instead.
func (v *Verifier) validateAudience(claims *Claims) error {
	for _, aud := range claims.Audience {
		if aud == v.clientID {
			return nil
		}
	}

	if len(claims.Audience) == 0 && claims.TokenUse == TokenUseAccess && claims.ClientID == v.clientID {
		return nil
	}

	return NewError(KindAudienceMismatch,
		fmt.Errorf("token audience %v does not include client %s", []string(claims.Audience), v.clientID))
}

// JWTHeader represents the parsed JWT header
type JWTHeader struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	Typ string `json:"typ,omitempty"`
}

// ParseJWTHeader reads the header of a token without verifying anything
func ParseJWTHeader(tokenString string) (*JWTHeader, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	header := &JWTHeader{}
	header.Alg, _ = token.Header["alg"].(string)
	header.Kid, _ = token.Header["kid"].(string)
	header.Typ, _ = token.Header["typ"].(string)

	return header, nil
}

// AccessTokenHash computes the OIDC at_hash value for an RS256-signed token:
// base64url of the left half of the SHA-256 digest.
func AccessTokenHash(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return base64.RawURLEncoding.EncodeToString(sum[:len(sum)/2])
}

func constantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
