package client

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is reported for an unknown client id or a wrong secret.
	ErrInvalidCredentials = errors.New("invalid client or secret key credentials")
	// ErrInvalidScope is reported when a requested scope is unknown or not granted.
	ErrInvalidScope = errors.New("invalid or unauthorized scope")
	// ErrUnsupportedGrantType is reported when the grant type is refused.
	ErrUnsupportedGrantType = errors.New("unsupported grant type")
	// ErrParse matches any *ParseError.
	ErrParse = errors.New("malformed XML")
)

// AuthErrorCode is an OAuth2 error code returned by the token endpoint.
type AuthErrorCode string

// Known token endpoint error codes.
const (
	AuthErrorInvalidClient        AuthErrorCode = "invalid_client"
	AuthErrorInvalidScope         AuthErrorCode = "invalid_scope"
	AuthErrorUnsupportedGrantType AuthErrorCode = "unsupported_grant_type"
)

// AuthError is a structured failure reported by the token endpoint.
type AuthError struct {
	Code        AuthErrorCode
	Description string
}

// parseAuthErrorCode maps a raw error code to a known AuthErrorCode.
// Unknown or empty codes are not errors.
func parseAuthErrorCode(raw string) (AuthErrorCode, bool) {
	switch code := AuthErrorCode(raw); code {
	case AuthErrorInvalidClient, AuthErrorInvalidScope, AuthErrorUnsupportedGrantType:
		return code, true
	default:
		return "", false
	}
}

func (e *AuthError) Error() string {
	msg := e.Unwrap().Error()
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", msg, e.Description)
	}
	return msg
}

// Unwrap returns the sentinel error for the code.
func (e *AuthError) Unwrap() error {
	switch e.Code {
	case AuthErrorInvalidClient:
		return ErrInvalidCredentials
	case AuthErrorInvalidScope:
		return ErrInvalidScope
	case AuthErrorUnsupportedGrantType:
		return ErrUnsupportedGrantType
	}
	return fmt.Errorf("authorization error %q", string(e.Code))
}

// HTTPError is a non-2xx response from either endpoint family.
type HTTPError struct {
	StatusCode int
	Body       string
	// cause is set when the body carried a known OAuth2 error code.
	cause error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// Unwrap returns the *AuthError decoded from the body, if any.
func (e *HTTPError) Unwrap() error {
	return e.cause
}

// ParseError is returned when a response body is not well-formed XML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing XML response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
