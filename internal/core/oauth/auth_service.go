package oauth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"Gallery/internal/auth"
)

// Config identifies this application to the hosted identity provider
type Config struct {
	// Domain is the hosted UI host, e.g. myapp.auth.us-east-1.amazoncognito.com.
	// A scheme may be included; https is assumed otherwise.
	Domain       string
	ClientID     string
	ClientSecret string
	// BaseURL is this application's public origin
	BaseURL string
}

func (c Config) providerURL(path string) string {
	base := strings.TrimRight(c.Domain, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return base + path
}

// TokenURL is the OAuth2 token endpoint
func (c Config) TokenURL() string {
	return c.providerURL("/oauth2/token")
}

// RedirectURI is where the provider sends the browser after login
func (c Config) RedirectURI() string {
	return strings.TrimRight(c.BaseURL, "/") + "/callback"
}

// AuthService runs the hosted-login flow and answers whether a session is
// authenticated.
type AuthService struct {
	verifier  auth.TokenVerifier
	exchanger auth.CodeExchanger
	logger    *zap.Logger
	nowFn     func() time.Time
	stateFn   func() (string, error)
	cfg       Config
}

// NewAuthService creates the service. verifier must be built from the key
// set fetched at startup.
func NewAuthService(cfg Config, verifier auth.TokenVerifier, exchanger auth.CodeExchanger, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		cfg:       cfg,
		verifier:  verifier,
		exchanger: exchanger,
		logger:    logger,
		nowFn:     time.Now,
		stateFn:   GenerateState,
	}
}

// GenerateState returns 16 random bytes, hex encoded
func GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// InitiateLogin stores a fresh CSRF state in sess, replacing any earlier one,
// and returns the provider login URL to redirect to.
func (s *AuthService) InitiateLogin(sess Session) (string, error) {
	state, err := s.stateFn()
	if err != nil {
		return "", err
	}
	sess.Set(SessionKeyState, state)

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", s.cfg.ClientID)
	q.Set("state", state)
	q.Set("redirect_uri", s.cfg.RedirectURI())

	return s.cfg.providerURL("/login") + "?" + q.Encode(), nil
}

// HandleCallback completes a login. The stored state is consumed whether or
// not it matches, and it is checked before any call to the provider.
// sess is only written once both tokens have verified.
func (s *AuthService) HandleCallback(ctx context.Context, sess Session, state, code string) (Identity, error) {
	expected, _ := sessionString(sess, SessionKeyState)
	sess.Delete(SessionKeyState)

	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(state)) != 1 {
		err := auth.NewError(auth.KindCSRFMismatch, fmt.Errorf("state parameter does not match stored state"))
		s.logger.Warn("oauth callback rejected", zap.String("kind", string(auth.KindCSRFMismatch)))
		return Identity{}, err
	}

	tokens, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		if auth.KindOf(err) == "" {
			err = auth.NewError(auth.KindTokenExchangeFailed, err)
		}
		s.logger.Warn("oauth code exchange failed",
			zap.String("kind", string(auth.KindOf(err))),
			zap.Error(err))
		return Identity{}, err
	}

	if _, err := s.verifier.Verify(tokens.AccessToken, ""); err != nil {
		return Identity{}, s.invalidToken("access", err)
	}

	claims, err := s.verifier.Verify(tokens.IDToken, tokens.AccessToken)
	if err != nil {
		return Identity{}, s.invalidToken("id", err)
	}

	identity := Identity{
		UserID:    claims.UserID(),
		Nickname:  claims.UserID(),
		ExpiresAt: claims.ExpiresAt.Time,
	}

	// Nothing from a previous login survives into this one
	sess.Delete(SessionKeyNickname)
	sess.Delete(SessionKeyExpires)
	sess.Delete(SessionKeyRefreshToken)

	sess.Set(SessionKeyNickname, identity.Nickname)
	sess.Set(SessionKeyExpires, identity.ExpiresAt.Unix())
	if tokens.RefreshToken != "" {
		sess.Set(SessionKeyRefreshToken, tokens.RefreshToken)
	}

	// Remember the browser until the identity token runs out
	maxAge := int(identity.Remaining(s.nowFn()) / time.Second)
	if maxAge < 1 {
		maxAge = 1
	}
	sess.SetMaxAge(maxAge)

	s.logger.Info("user logged in",
		zap.String("user", identity.UserID),
		zap.Time("expires_at", identity.ExpiresAt))

	return identity, nil
}

func (s *AuthService) invalidToken(which string, err error) error {
	s.logger.Warn("oauth token verification failed",
		zap.String("token", which),
		zap.String("kind", string(auth.KindOf(err))),
		zap.Error(err))
	return auth.NewError(auth.KindInvalidToken, err)
}

// AuthorizeRequest reports the identity held by sess. A session without an
// expiry, or whose expiry is not after now, is unauthenticated. The session
// is left as is either way, and the provider is never contacted.
func (s *AuthService) AuthorizeRequest(sess Session) (Identity, bool) {
	expires, ok := sessionUnix(sess, SessionKeyExpires)
	if !ok {
		return Identity{}, false
	}

	if expires-s.nowFn().Unix() <= 0 {
		return Identity{}, false
	}

	nickname, _ := sessionString(sess, SessionKeyNickname)
	return Identity{
		UserID:    nickname,
		Nickname:  nickname,
		ExpiresAt: time.Unix(expires, 0),
	}, true
}

// Logout empties sess, expires its cookie and returns the provider logout
// URL. Calling it on an empty session is fine.
func (s *AuthService) Logout(sess Session) string {
	sess.Clear()
	sess.SetMaxAge(-1)

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", s.cfg.ClientID)
	q.Set("logout_uri", strings.TrimRight(s.cfg.BaseURL, "/")+"/")

	return s.cfg.providerURL("/logout") + "?" + q.Encode()
}
