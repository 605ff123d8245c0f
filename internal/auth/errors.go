package auth

import (
	"errors"
	"fmt"
)

// Reason classifies why a token was rejected.
type Reason string

const (
	ReasonExpired    Reason = "expired"
	ReasonMalformed  Reason = "malformed"
	ReasonWrongScope Reason = "wrong-scope"
	ReasonRevoked    Reason = "revoked"
)

// TokenError is returned for every token rejection. All reasons are
// authentication failures; callers must not retry.
type TokenError struct {
	Reason Reason
	Err    error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token %s: %v", e.Reason, e.Err)
	}
	return "token " + string(e.Reason)
}

func (e *TokenError) Unwrap() error { return e.Err }

// Is matches any *TokenError with the same reason, so errors.Is(err, ErrTokenExpired) works.
func (e *TokenError) Is(target error) bool {
	t, ok := target.(*TokenError)
	return ok && t.Reason == e.Reason
}

var (
	ErrTokenExpired    = &TokenError{Reason: ReasonExpired}
	ErrTokenMalformed  = &TokenError{Reason: ReasonMalformed}
	ErrTokenWrongScope = &TokenError{Reason: ReasonWrongScope}
	ErrTokenRevoked    = &TokenError{Reason: ReasonRevoked}
)

// ErrInvalidCredentials is returned by Login for both unknown email and wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

func tokenErr(r Reason, err error) error {
	return &TokenError{Reason: r, Err: err}
}
