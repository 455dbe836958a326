package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

const (
	userAgent         = "francetravail-stats/1.0"
	tracerName        = "francetravail/client/http"
	acceptHeader      = "application/xml, application/json"
	grantTypeClientCr = "client_credentials"
)

// httpClient handles low-level HTTP operations. It never retries.
type httpClient struct {
	authURL     string
	credentials Credentials
	token       string
	logger      Logger
	http        *resty.Client
}

// newHTTPClient creates a new HTTP client.
func newHTTPClient(config Config) *httpClient {
	var rc *resty.Client
	if config.HTTPClient != nil {
		rc = resty.NewWithClient(config.HTTPClient)
	} else {
		rc = resty.New()
	}
	if config.Timeout > 0 {
		rc.SetTimeout(config.Timeout)
	}
	rc.SetBaseURL(config.BaseURL)
	rc.SetHeader("User-Agent", userAgent)

	instrumentResty(rc, otel.Tracer(tracerName))

	authURL := config.AuthURL
	if authURL == "" {
		authURL = DefaultAuthURL
	}

	return &httpClient{
		authURL:     authURL,
		credentials: config.Credentials,
		logger:      config.Logger,
		http:        rc,
	}
}

func (c *httpClient) setToken(token string) {
	c.token = token
}

// doTokenRequest performs the client-credentials exchange.
func (c *httpClient) doTokenRequest(ctx context.Context, realm string, scopes []string) (Token, error) {
	c.logger.Debug(ctx, "Requesting access token", map[string]interface{}{
		"operation": "token_request",
		"realm":     realm,
		"scopes":    scopes,
		"client_id": c.credentials.ClientID,
	})

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetQueryParam("realm", realm).
		SetFormData(map[string]string{
			"grant_type":    grantTypeClientCr,
			"client_id":     c.credentials.ClientID,
			"client_secret": c.credentials.ClientSecret,
			"scope":         strings.Join(scopes, " "),
		}).
		Post(c.authURL)
	if err != nil {
		return Token{}, fmt.Errorf("executing token request: %w", err)
	}

	if !resp.IsSuccess() {
		httpErr := &HTTPError{StatusCode: resp.StatusCode(), Body: resp.String()}
		var body tokenResponse
		if json.Unmarshal(resp.Body(), &body) == nil {
			if code, ok := parseAuthErrorCode(body.Error); ok {
				httpErr.cause = &AuthError{Code: code, Description: body.ErrorDescription}
			}
		}
		c.logger.Error(ctx, "Token request failed", map[string]interface{}{
			"operation":   "token_request",
			"status_code": resp.StatusCode(),
			"response":    resp.String(),
		})
		return Token{}, httpErr
	}

	var body tokenResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return Token{}, fmt.Errorf("decoding token response: %w", err)
	}

	if code, ok := parseAuthErrorCode(body.Error); ok {
		c.logger.Error(ctx, "Token endpoint reported an error", map[string]interface{}{
			"operation": "token_request",
			"error":     body.Error,
		})
		return Token{}, &AuthError{Code: code, Description: body.ErrorDescription}
	}

	if body.AccessToken == "" {
		return Token{}, errors.New("token response has no access_token")
	}

	expiresIn := time.Duration(body.ExpiresIn) * time.Second
	token := Token{
		AccessToken: body.AccessToken,
		Scope:       body.Scope,
		TokenType:   body.TokenType,
		ExpiresIn:   expiresIn,
	}
	if expiresIn > 0 {
		token.ExpiresAt = time.Now().Add(expiresIn)
	}

	c.logger.Info(ctx, "Access token obtained", map[string]interface{}{
		"operation":  "token_request",
		"scope":      body.Scope,
		"token_type": body.TokenType,
		"expires_in": expiresIn,
	})

	return token, nil
}

// doFetchRequest posts a statistics query and parses the XML response.
func (c *httpClient) doFetchRequest(ctx context.Context, path string, body Params) (Table, error) {
	if body == nil {
		body = Params{}
	}
	path = strings.TrimLeft(path, "/")

	c.logger.Debug(ctx, "Making statistics request", map[string]interface{}{
		"operation": "fetch_endpoint",
		"path":      path,
		"method":    "POST",
	})

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", acceptHeader).
		SetBody(body).
		Post(path)
	if err != nil {
		return Table{}, fmt.Errorf("executing request: %w", err)
	}

	if !resp.IsSuccess() {
		c.logger.Error(ctx, "Statistics request failed", map[string]interface{}{
			"operation":   "fetch_endpoint",
			"path":        path,
			"status_code": resp.StatusCode(),
			"response":    resp.String(),
		})
		return Table{}, &HTTPError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	if strings.TrimSpace(resp.String()) == "" {
		c.logger.Warn(ctx, "Empty statistics response", map[string]interface{}{
			"operation":   "fetch_endpoint",
			"path":        path,
			"status_code": resp.StatusCode(),
		})
		return Table{}, nil
	}

	table, diag, err := ParseXMLWithDiagnostics(resp.String())
	if err != nil {
		return Table{}, err
	}

	fields := map[string]interface{}{
		"operation": "fetch_endpoint",
		"path":      path,
		"rows":      table.Len(),
		"columns":   len(table.Columns),
	}
	if diag.HasIssues() {
		fields["dropped_rows"] = diag.DroppedRows
		fields["dropped_columns"] = diag.DroppedColumns
		fields["warnings"] = diag.Warnings
	}
	c.logger.Debug(ctx, "Statistics response received", fields)

	return table, nil
}
