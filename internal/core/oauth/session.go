package oauth

import (
	"time"
)

// Session value keys
const (
	SessionKeyState        = "csrf_state"
	SessionKeyNickname     = "nickname"
	SessionKeyExpires      = "expires"
	SessionKeyRefreshToken = "refresh_token"
)

// Session is the per-browser key/value state carried between requests.
// The HTTP layer backs it with a signed cookie; the service never touches
// the transport.
type Session interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
	// Clear removes every value
	Clear()
	// SetMaxAge controls cookie lifetime in seconds: 0 is a browser session,
	// negative deletes the cookie.
	SetMaxAge(seconds int)
}

// Identity is the authenticated user for one request
type Identity struct {
	ExpiresAt time.Time
	UserID    string
	Nickname  string
}

// Remaining returns how long the identity stays valid after now
func (i Identity) Remaining(now time.Time) time.Duration {
	return i.ExpiresAt.Sub(now)
}

func sessionString(sess Session, key string) (string, bool) {
	v, ok := sess.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// sessionUnix reads a unix timestamp. Cookie codecs and JSON stores hand
// numbers back in different widths.
func sessionUnix(sess Session, key string) (int64, bool) {
	v, ok := sess.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
