package auth

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why an authentication attempt was rejected.
// The kinds are internal; every one of them collapses to the same generic
// "authentication failed" response at the HTTP boundary.
type ErrorKind string

const (
	KindCSRFMismatch        ErrorKind = "csrf_mismatch"
	KindTokenExchangeFailed ErrorKind = "token_exchange_failed"
	KindInvalidToken        ErrorKind = "invalid_token"

	// Causes wrapped by KindInvalidToken
	KindUnknownKeyID     ErrorKind = "unknown_key_id"
	KindSignatureInvalid ErrorKind = "signature_invalid"
	KindAudienceMismatch ErrorKind = "audience_mismatch"
	KindExpired          ErrorKind = "expired"
)

// AuthenticationError is returned by every failing step of the login flow.
type AuthenticationError struct {
	Err  error
	Kind ErrorKind
}

func (e *AuthenticationError) Error() string {
	if e.Err == nil {
		return "authentication failed: " + string(e.Kind)
	}
	return fmt.Sprintf("authentication failed: %s: %v", e.Kind, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is matches any AuthenticationError of the same kind, so the sentinels
// below work with errors.Is regardless of the wrapped cause.
func (e *AuthenticationError) Is(target error) bool {
	t, ok := target.(*AuthenticationError)
	return ok && t.Kind == e.Kind
}

// Sentinel errors for errors.Is checks
var (
	ErrCSRFMismatch        = &AuthenticationError{Kind: KindCSRFMismatch}
	ErrTokenExchangeFailed = &AuthenticationError{Kind: KindTokenExchangeFailed}
	ErrInvalidToken        = &AuthenticationError{Kind: KindInvalidToken}
	ErrUnknownKeyID        = &AuthenticationError{Kind: KindUnknownKeyID}
	ErrSignatureInvalid    = &AuthenticationError{Kind: KindSignatureInvalid}
	ErrAudienceMismatch    = &AuthenticationError{Kind: KindAudienceMismatch}
	ErrExpired             = &AuthenticationError{Kind: KindExpired}
)

// NewError builds an AuthenticationError of the given kind wrapping err.
func NewError(kind ErrorKind, err error) *AuthenticationError {
	return &AuthenticationError{Kind: kind, Err: err}
}

// KindOf returns the outermost authentication kind in err's chain, or ""
// when err is not an authentication failure.
func KindOf(err error) ErrorKind {
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return ""
}
