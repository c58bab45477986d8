package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTokenTimeout bounds a single call to the token endpoint
const DefaultTokenTimeout = 10 * time.Second

// TokenResponse is the token endpoint's JSON reply
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// CodeExchanger trades an authorization code for tokens
type CodeExchanger interface {
	Exchange(ctx context.Context, code string) (*TokenResponse, error)
}

// TokenClient calls the provider's OAuth2 token endpoint using HTTP Basic
// client authentication.
type TokenClient struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
	redirectURI  string
}

// NewTokenClient creates a token endpoint client. A non-positive timeout
// falls back to DefaultTokenTimeout.
func NewTokenClient(tokenURL, clientID, clientSecret, redirectURI string, timeout time.Duration) *TokenClient {
	if timeout <= 0 {
		timeout = DefaultTokenTimeout
	}
	return &TokenClient{
		httpClient:   &http.Client{Timeout: timeout},
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
	}
}

// Exchange performs the authorization_code grant.
// Transport failures, timeouts, non-2xx replies and undecodable bodies all
// fail with KindTokenExchangeFailed. No retry is attempted.
func (c *TokenClient) Exchange(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.clientID)
	form.Set("code", code)
	form.Set("redirect_uri", c.redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, NewError(KindTokenExchangeFailed, fmt.Errorf("failed to create token request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewError(KindTokenExchangeFailed, fmt.Errorf("token request failed: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body for the log line; provider errors are short JSON
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewError(KindTokenExchangeFailed,
			fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var tokens TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, NewError(KindTokenExchangeFailed, fmt.Errorf("failed to decode token response: %w", err))
	}

	if tokens.AccessToken == "" || tokens.IDToken == "" {
		return nil, NewError(KindTokenExchangeFailed, fmt.Errorf("token response missing access_token or id_token"))
	}

	return &tokens, nil
}
