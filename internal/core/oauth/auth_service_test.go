package oauth

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Gallery/internal/auth"
	"Gallery/internal/auth/authtest"
)

const testClientID = "gallery-client"

type memorySession struct {
	values map[string]any
	maxAge int
}

func newMemorySession() *memorySession {
	return &memorySession{values: map[string]any{}}
}

func (m *memorySession) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *memorySession) Set(key string, value any) { m.values[key] = value }
func (m *memorySession) Delete(key string)         { delete(m.values, key) }
func (m *memorySession) Clear()                    { m.values = map[string]any{} }
func (m *memorySession) SetMaxAge(seconds int)     { m.maxAge = seconds }

// stubExchanger returns canned tokens and counts calls
type stubExchanger struct {
	tokens *auth.TokenResponse
	err    error
	codes  []string
}

func (s *stubExchanger) Exchange(_ context.Context, code string) (*auth.TokenResponse, error) {
	s.codes = append(s.codes, code)
	if s.err != nil {
		return nil, s.err
	}
	return s.tokens, nil
}

func testConfig() Config {
	return Config{
		Domain:       "gallery.auth.us-east-1.amazoncognito.com",
		ClientID:     testClientID,
		ClientSecret: "secret",
		BaseURL:      "https://gallery.example.com",
	}
}

func newTestService(t *testing.T, signer *authtest.Signer, exchanger auth.CodeExchanger, now time.Time) *AuthService {
	t.Helper()
	svc := NewAuthService(testConfig(), auth.NewVerifier(signer.KeySet(t), testClientID), exchanger, nil)
	svc.nowFn = func() time.Time { return now }
	svc.stateFn = func() (string, error) { return "abc123", nil }
	return svc
}

// signedTokens issues an access token and a matching ID token for username
func signedTokens(t *testing.T, signer *authtest.Signer, username string, exp time.Time) *auth.TokenResponse {
	t.Helper()
	access := signer.Sign(t, authtest.AccessTokenClaims(testClientID, username, exp))

	idClaims := authtest.IDTokenClaims(testClientID, username, exp)
	idClaims.AccessTokenHash = auth.AccessTokenHash(access)

	return &auth.TokenResponse{
		AccessToken:  access,
		IDToken:      signer.Sign(t, idClaims),
		RefreshToken: "refresh-" + username,
		TokenType:    "Bearer",
		ExpiresIn:    3600,
	}
}

func TestInitiateLogin(t *testing.T) {
	signer := authtest.NewSigner(t, "key-1")
	svc := newTestService(t, signer, &stubExchanger{}, time.Now())
	sess := newMemorySession()
	sess.Set(SessionKeyState, "stale")

	loginURL, err := svc.InitiateLogin(sess)
	require.NoError(t, err)

	state, _ := sess.Get(SessionKeyState)
	assert.Equal(t, "abc123", state)

	u, err := url.Parse(loginURL)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "gallery.auth.us-east-1.amazoncognito.com", u.Host)
	assert.Equal(t, "/login", u.Path)
	assert.Equal(t, "code", u.Query().Get("response_type"))
	assert.Equal(t, testClientID, u.Query().Get("client_id"))
	assert.Equal(t, "abc123", u.Query().Get("state"))
	assert.Equal(t, "https://gallery.example.com/callback", u.Query().Get("redirect_uri"))

	_, ok := svc.AuthorizeRequest(sess)
	assert.False(t, ok, "login pending is not authenticated")
}

func TestGenerateState_Unique(t *testing.T) {
	a, err := GenerateState()
	require.NoError(t, err)
	b, err := GenerateState()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestHandleCallback_Success(t *testing.T) {
	now := time.Now()
	exp := now.Add(3600 * time.Second)

	signer := authtest.NewSigner(t, "key-1")
	exchanger := &stubExchanger{tokens: signedTokens(t, signer, "alice", exp)}
	svc := newTestService(t, signer, exchanger, now)
	sess := newMemorySession()

	_, err := svc.InitiateLogin(sess)
	require.NoError(t, err)

	identity, err := svc.HandleCallback(context.Background(), sess, "abc123", "validcode")
	require.NoError(t, err)

	assert.Equal(t, []string{"validcode"}, exchanger.codes)
	assert.Equal(t, "alice", identity.UserID)
	assert.Equal(t, "alice", identity.Nickname)
	assert.WithinDuration(t, exp, identity.ExpiresAt, time.Second)

	_, hasState := sess.Get(SessionKeyState)
	assert.False(t, hasState, "csrf state is consumed")
	assert.Equal(t, "refresh-alice", sess.values[SessionKeyRefreshToken])
	assert.InDelta(t, 3600, sess.maxAge, 1, "session is remembered until expiry")

	got, ok := svc.AuthorizeRequest(sess)
	require.True(t, ok)
	assert.Equal(t, "alice", got.UserID)
	assert.WithinDuration(t, exp, got.ExpiresAt, time.Second)
}

func TestHandleCallback_CSRFMismatch(t *testing.T) {
	tests := []struct {
		name        string
		storedState string
		state       string
	}{
		{name: "wrong state", storedState: "abc123", state: "wrong"},
		{name: "empty state", storedState: "abc123", state: ""},
		{name: "nothing stored", storedState: "", state: "abc123"},
		{name: "prefix of stored state", storedState: "abc123", state: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := authtest.NewSigner(t, "key-1")
			exchanger := &stubExchanger{tokens: signedTokens(t, signer, "alice", time.Now().Add(time.Hour))}
			svc := newTestService(t, signer, exchanger, time.Now())
			sess := newMemorySession()
			if tt.storedState != "" {
				sess.Set(SessionKeyState, tt.storedState)
			}

			identity, err := svc.HandleCallback(context.Background(), sess, tt.state, "validcode")
			assert.ErrorIs(t, err, auth.ErrCSRFMismatch)
			assert.Equal(t, Identity{}, identity)

			assert.Empty(t, exchanger.codes, "no token exchange after csrf failure")
			assert.Empty(t, sess.values, "no session values written")
			_, ok := svc.AuthorizeRequest(sess)
			assert.False(t, ok)
		})
	}
}

func TestHandleCallback_StateIsSingleUse(t *testing.T) {
	signer := authtest.NewSigner(t, "key-1")
	exchanger := &stubExchanger{err: errors.New("provider down")}
	svc := newTestService(t, signer, exchanger, time.Now())
	sess := newMemorySession()

	_, err := svc.InitiateLogin(sess)
	require.NoError(t, err)

	_, err = svc.HandleCallback(context.Background(), sess, "abc123", "code")
	assert.ErrorIs(t, err, auth.ErrTokenExchangeFailed)

	// Replaying the same state fails on the state check
	_, err = svc.HandleCallback(context.Background(), sess, "abc123", "code")
	assert.ErrorIs(t, err, auth.ErrCSRFMismatch)
	assert.Len(t, exchanger.codes, 1)
}

func TestHandleCallback_ReplacesPreviousIdentity(t *testing.T) {
	signer := authtest.NewSigner(t, "key-1")
	tokens := signedTokens(t, signer, "alice", time.Now().Add(time.Hour))
	tokens.RefreshToken = ""
	svc := newTestService(t, signer, &stubExchanger{tokens: tokens}, time.Now())

	sess := newMemorySession()
	sess.Set(SessionKeyNickname, "mallory")
	sess.Set(SessionKeyExpires, int64(1))
	sess.Set(SessionKeyRefreshToken, "old-refresh")
	sess.Set(SessionKeyState, "abc123")

	identity, err := svc.HandleCallback(context.Background(), sess, "abc123", "code")
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Nickname)

	assert.Equal(t, "alice", sess.values[SessionKeyNickname])
	assert.Equal(t, identity.ExpiresAt.Unix(), sess.values[SessionKeyExpires])
	assert.NotContains(t, sess.values, SessionKeyRefreshToken)
}

func TestHandleCallback_TokenExchangeFailed(t *testing.T) {
	signer := authtest.NewSigner(t, "key-1")
	exchanger := &stubExchanger{err: auth.NewError(auth.KindTokenExchangeFailed, errors.New("status 400"))}
	svc := newTestService(t, signer, exchanger, time.Now())
	sess := newMemorySession()
	sess.Set(SessionKeyState, "abc123")

	_, err := svc.HandleCallback(context.Background(), sess, "abc123", "badcode")
	assert.ErrorIs(t, err, auth.ErrTokenExchangeFailed)
	assert.Equal(t, auth.KindTokenExchangeFailed, auth.KindOf(err))
	assert.Empty(t, sess.values)
}

func TestHandleCallback_UnknownKeyID(t *testing.T) {
	trusted := authtest.NewSigner(t, "trusted")
	rogue := authtest.NewSigner(t, "rogue")

	exchanger := &stubExchanger{tokens: signedTokens(t, rogue, "mallory", time.Now().Add(time.Hour))}
	svc := newTestService(t, trusted, exchanger, time.Now())
	sess := newMemorySession()
	sess.Set(SessionKeyState, "abc123")

	_, err := svc.HandleCallback(context.Background(), sess, "abc123", "validcode")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
	assert.ErrorIs(t, err, auth.ErrUnknownKeyID)
	assert.Equal(t, auth.KindInvalidToken, auth.KindOf(err))

	assert.Empty(t, sess.values)
	assert.Zero(t, sess.maxAge)
}

func TestHandleCallback_IDTokenRejected(t *testing.T) {
	signer := authtest.NewSigner(t, "key-1")
	now := time.Now()

	tests := []struct {
		name    string
		tokens  func(t *testing.T) *auth.TokenResponse
		wantErr error
	}{
		{
			name: "expired by one second",
			tokens: func(t *testing.T) *auth.TokenResponse {
				tokens := signedTokens(t, signer, "alice", now.Add(time.Hour))
				tokens.IDToken = signer.Sign(t, authtest.IDTokenClaims(testClientID, "alice", time.Now().Add(-time.Second)))
				return tokens
			},
			wantErr: auth.ErrExpired,
		},
		{
			name: "wrong audience",
			tokens: func(t *testing.T) *auth.TokenResponse {
				tokens := signedTokens(t, signer, "alice", now.Add(time.Hour))
				tokens.IDToken = signer.Sign(t, authtest.IDTokenClaims("other-app", "alice", now.Add(time.Hour)))
				return tokens
			},
			wantErr: auth.ErrAudienceMismatch,
		},
		{
			name: "at_hash of a different access token",
			tokens: func(t *testing.T) *auth.TokenResponse {
				tokens := signedTokens(t, signer, "alice", now.Add(time.Hour))
				tokens.AccessToken = signer.Sign(t, authtest.AccessTokenClaims(testClientID, "alice", now.Add(2*time.Hour)))
				return tokens
			},
			wantErr: auth.ErrSignatureInvalid,
		},
		{
			name: "access token garbage",
			tokens: func(t *testing.T) *auth.TokenResponse {
				tokens := signedTokens(t, signer, "alice", now.Add(time.Hour))
				tokens.AccessToken = "garbage"
				return tokens
			},
			wantErr: auth.ErrSignatureInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, signer, &stubExchanger{tokens: tt.tokens(t)}, now)
			sess := newMemorySession()
			sess.Set(SessionKeyState, "abc123")

			_, err := svc.HandleCallback(context.Background(), sess, "abc123", "validcode")
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
			assert.ErrorIs(t, err, tt.wantErr)

			_, ok := svc.AuthorizeRequest(sess)
			assert.False(t, ok)
			assert.Empty(t, sess.values)
		})
	}
}

func TestAuthorizeRequest_Expiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	signer := authtest.NewSigner(t, "key-1")
	svc := newTestService(t, signer, &stubExchanger{}, now)

	tests := []struct {
		name    string
		expires any
		wantOK  bool
	}{
		{name: "one hour left", expires: now.Add(time.Hour).Unix(), wantOK: true},
		{name: "one second left", expires: now.Unix() + 1, wantOK: true},
		{name: "exactly now", expires: now.Unix(), wantOK: false},
		{name: "one second ago", expires: now.Unix() - 1, wantOK: false},
		{name: "float from json codec", expires: float64(now.Unix() + 60), wantOK: true},
		{name: "wrong type", expires: "tomorrow", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newMemorySession()
			sess.Set(SessionKeyNickname, "alice")
			sess.Set(SessionKeyExpires, tt.expires)

			identity, ok := svc.AuthorizeRequest(sess)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "alice", identity.UserID)
				assert.Equal(t, "alice", identity.Nickname)
			} else {
				assert.Equal(t, Identity{}, identity)
			}

			// The guard never destroys the session
			assert.Equal(t, tt.expires, sess.values[SessionKeyExpires])
			assert.Equal(t, "alice", sess.values[SessionKeyNickname])
		})
	}
}

func TestAuthorizeRequest_NoExpiry(t *testing.T) {
	svc := newTestService(t, authtest.NewSigner(t, "key-1"), &stubExchanger{}, time.Now())
	sess := newMemorySession()
	sess.Set(SessionKeyNickname, "alice")

	_, ok := svc.AuthorizeRequest(sess)
	assert.False(t, ok)
}

func TestAuthorizeRequest_NoProviderCall(t *testing.T) {
	now := time.Now()
	signer := authtest.NewSigner(t, "key-1")
	exchanger := &stubExchanger{tokens: signedTokens(t, signer, "alice", now.Add(time.Hour))}
	svc := newTestService(t, signer, exchanger, now)
	sess := newMemorySession()

	_, err := svc.InitiateLogin(sess)
	require.NoError(t, err)
	_, err = svc.HandleCallback(context.Background(), sess, "abc123", "validcode")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		identity, ok := svc.AuthorizeRequest(sess)
		require.True(t, ok)
		assert.Equal(t, "alice", identity.UserID)
	}
	assert.Len(t, exchanger.codes, 1)
}

func TestLogout_Idempotent(t *testing.T) {
	now := time.Now()
	signer := authtest.NewSigner(t, "key-1")
	svc := newTestService(t, signer, &stubExchanger{tokens: signedTokens(t, signer, "alice", now.Add(time.Hour))}, now)
	sess := newMemorySession()

	_, err := svc.InitiateLogin(sess)
	require.NoError(t, err)
	_, err = svc.HandleCallback(context.Background(), sess, "abc123", "validcode")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		logoutURL := svc.Logout(sess)

		_, ok := svc.AuthorizeRequest(sess)
		assert.False(t, ok)
		assert.Empty(t, sess.values)
		assert.Equal(t, -1, sess.maxAge)

		u, err := url.Parse(logoutURL)
		require.NoError(t, err)
		assert.Equal(t, "/logout", u.Path)
		assert.Equal(t, testClientID, u.Query().Get("client_id"))
		assert.Equal(t, "https://gallery.example.com/", u.Query().Get("logout_uri"))
	}
}

func TestConfig_URLs(t *testing.T) {
	cfg := Config{Domain: "http://127.0.0.1:9000/", BaseURL: "http://localhost:8080/"}
	assert.Equal(t, "http://127.0.0.1:9000/oauth2/token", cfg.TokenURL())
	assert.Equal(t, "http://localhost:8080/callback", cfg.RedirectURI())
}
