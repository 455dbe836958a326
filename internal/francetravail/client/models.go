// Package client provides HTTP client functionality for the France Travail API
package client

import (
	"time"
)

// Params is the JSON body of a statistics request.
type Params map[string]any

// Merge returns a new Params holding p overlaid with each of overrides in
// order. Later keys win.
func (p Params) Merge(overrides ...Params) Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, o := range overrides {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}

// tokenResponse is the body returned by the OAuth2 token endpoint. Errors
// may be reported with a 2xx status, so both shapes share one struct.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	Scope            string `json:"scope"`
	ExpiresIn        int    `json:"expires_in"`
	TokenType        string `json:"token_type"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Token is a bearer credential for the statistics endpoints.
type Token struct {
	AccessToken string
	Scope       string
	TokenType   string
	ExpiresIn   time.Duration
	// ExpiresAt is informational; the client does not refresh tokens.
	ExpiresAt time.Time
}

// Expired reports whether the token lifetime has elapsed at now. Tokens
// without a known lifetime never expire.
func (t Token) Expired(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(t.ExpiresAt)
}
