// Package session keeps per-browser state in a signed and encrypted cookie
// using gorilla/sessions.
package session

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/hkdf"
)

const (
	// CookieName is the name of the session cookie
	CookieName = "gallery_session"

	// MinSecretLength is the minimum signing secret size in bytes
	MinSecretLength = 32

	encryptionKeyInfo = "gallery session encryption"
)

// Store issues cookie-backed sessions
type Store struct {
	cookies *sessions.CookieStore
	secure  bool
}

// NewStore creates a cookie store signed with secret and AES-256 encrypted
// with a key derived from it.
// secure marks cookies HTTPS-only and should be off only for local development.
func NewStore(secret string, secure bool) (*Store, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("SESSION_SECRET must be at least %d bytes for security", MinSecretLength)
	}
	blockKey, err := deriveBlockKey(secret)
	if err != nil {
		return nil, err
	}
	return &Store{
		cookies: sessions.NewCookieStore([]byte(secret), blockKey),
		secure:  secure,
	}, nil
}

func deriveBlockKey(secret string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(encryptionKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive session encryption key: %w", err)
	}
	return key, nil
}

// Load returns the session carried by r. A missing, tampered or stale
// cookie yields an empty session rather than an error.
func (s *Store) Load(r *http.Request) *Session {
	sess, err := s.cookies.Get(r, CookieName)
	if err != nil || sess == nil {
		sess = sessions.NewSession(s.cookies, CookieName)
		sess.IsNew = true
	}
	sess.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Session{raw: sess}
}

// Session adapts a gorilla session to a plain key/value interface
type Session struct {
	raw *sessions.Session
}

func (c *Session) Get(key string) (any, bool) {
	v, ok := c.raw.Values[key]
	return v, ok
}

func (c *Session) Set(key string, value any) {
	c.raw.Values[key] = value
}

func (c *Session) Delete(key string) {
	delete(c.raw.Values, key)
}

func (c *Session) Clear() {
	for k := range c.raw.Values {
		delete(c.raw.Values, k)
	}
}

// SetMaxAge sets the cookie lifetime in seconds. Zero keeps the cookie for
// the browser session; negative deletes it on Save.
func (c *Session) SetMaxAge(seconds int) {
	c.raw.Options.MaxAge = seconds
}

// IsNew reports whether the request carried no usable cookie
func (c *Session) IsNew() bool {
	return c.raw.IsNew
}

// Save writes the cookie to w
func (c *Session) Save(r *http.Request, w http.ResponseWriter) error {
	if err := c.raw.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
