package auth

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// DefaultJWKSTimeout bounds the startup key set fetch
const DefaultJWKSTimeout = 10 * time.Second

// KeySet is the identity provider's published signing keys, indexed by key ID.
// It is built once at startup and never mutated afterwards, so it is safe for
// concurrent reads without locking.
type KeySet struct {
	keys map[string]*rsa.PublicKey
}

// CognitoJWKSURL returns the well-known JWKS location for a Cognito user pool
func CognitoJWKSURL(region, poolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s/.well-known/jwks.json", region, poolID)
}

// FetchKeySet downloads and parses the JWKS document at jwksURL.
// A failure here is meant to be fatal: without keys no token can be verified.
func FetchKeySet(ctx context.Context, jwksURL string, timeout time.Duration) (*KeySet, error) {
	if timeout <= 0 {
		timeout = DefaultJWKSTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	set, err := jwk.Fetch(ctx, jwksURL, jwk.WithHTTPClient(&http.Client{Timeout: timeout}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", jwksURL, err)
	}

	return NewKeySet(set)
}

// ParseKeySet builds a KeySet from a raw JWKS JSON document
func ParseKeySet(data []byte) (*KeySet, error) {
	set, err := jwk.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}
	return NewKeySet(set)
}

// NewKeySet indexes the RSA signing keys of set by kid.
// Keys without a kid, or of another type, are skipped.
func NewKeySet(set jwk.Set) (*KeySet, error) {
	ks := &KeySet{keys: make(map[string]*rsa.PublicKey, set.Len())}

	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok {
			continue
		}
		kid := strings.TrimSpace(key.KeyID())
		if kid == "" {
			continue
		}

		// Cognito only publishes RS256 keys
		if key.KeyType() != jwa.RSA {
			continue
		}
		var pub *rsa.PublicKey
		if err := key.Raw(&pub); err != nil {
			continue
		}
		ks.keys[kid] = pub
	}

	if len(ks.keys) == 0 {
		return nil, fmt.Errorf("no usable RSA keys found in JWKS")
	}

	return ks, nil
}

// Lookup returns the public key published under kid
func (k *KeySet) Lookup(kid string) (*rsa.PublicKey, bool) {
	pub, ok := k.keys[kid]
	return pub, ok
}

// Len returns the number of indexed keys
func (k *KeySet) Len() int {
	return len(k.keys)
}
