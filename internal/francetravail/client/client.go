// Package client provides HTTP client functionality for the France Travail API
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// TestingToken is the access token held by a client built in testing mode.
const TestingToken = "test_token"

const (
	// DefaultBaseURL is the root of the partner statistics endpoints.
	DefaultBaseURL = "https://api.francetravail.io/partenaire/"
	// DefaultAuthURL is the OAuth2 token endpoint.
	DefaultAuthURL = "https://entreprise.francetravail.fr/connexion/oauth2/access_token"
	// DefaultRealm is the authorization realm used for partner applications.
	DefaultRealm = "partenaire"
)

// DefaultScopes returns the scopes required by the statistics endpoints.
func DefaultScopes() []string {
	return []string{"api_stats-offres-demandes-emploiv1", "offresetdemandesemploi"}
}

// Fetcher issues a statistics query and returns the parsed table.
type Fetcher interface {
	// FetchEndpoint posts body to the endpoint at path and parses the XML response
	FetchEndpoint(ctx context.Context, path string, body Params) (Table, error)
}

// Client defines the interface for interacting with the France Travail API
type Client interface {
	Fetcher
	// ObtainAccessToken exchanges the configured credentials for a token
	ObtainAccessToken(ctx context.Context, realm string, scopes []string) (Token, error)
	// Token returns the token obtained at construction time
	Token() Token
}

// Credentials identify the partner application.
type Credentials struct {
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
}

// Config holds client configuration
type Config struct {
	BaseURL     string
	AuthURL     string
	Credentials Credentials
	Realm       string
	Scopes      []string
	// Testing skips the token exchange and uses TestingToken.
	Testing    bool
	Timeout    time.Duration
	Logger     Logger
	HTTPClient *http.Client
}

// defaultLogger is the default no-op logger instance
var defaultLogger = &noopLogger{}

// DefaultConfig returns a default client configuration
func DefaultConfig(creds Credentials) Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		AuthURL:     DefaultAuthURL,
		Credentials: creds,
		Realm:       DefaultRealm,
		Scopes:      DefaultScopes(),
		Timeout:     60 * time.Second,
		Logger:      defaultLogger,
	}
}

// client implements the Client interface
type client struct {
	httpClient *httpClient
	token      Token
	logger     Logger
}

// New creates a new France Travail API client. Outside testing mode it
// obtains an access token before returning; the token is never refreshed,
// so callers rebuild the client once it has expired.
func New(ctx context.Context, config Config) (Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if config.Logger == nil {
		config.Logger = defaultLogger
	}
	if config.Realm == "" {
		config.Realm = DefaultRealm
	}
	if len(config.Scopes) == 0 {
		config.Scopes = DefaultScopes()
	}

	c := &client{
		httpClient: newHTTPClient(config),
		logger:     config.Logger,
	}

	if config.Testing {
		c.token = Token{AccessToken: TestingToken, TokenType: "Bearer"}
		c.httpClient.setToken(TestingToken)
		c.logger.Debug(ctx, "Testing mode, skipping token exchange", map[string]interface{}{
			"operation": "new_client",
		})
		return c, nil
	}

	token, err := c.ObtainAccessToken(ctx, config.Realm, config.Scopes)
	if err != nil {
		return nil, fmt.Errorf("obtaining access token: %w", err)
	}
	c.token = token
	c.httpClient.setToken(token.AccessToken)

	return c, nil
}

// ObtainAccessToken implements Client.ObtainAccessToken
func (c *client) ObtainAccessToken(ctx context.Context, realm string, scopes []string) (Token, error) {
	return c.httpClient.doTokenRequest(ctx, realm, scopes)
}

// FetchEndpoint implements Client.FetchEndpoint
func (c *client) FetchEndpoint(ctx context.Context, path string, body Params) (Table, error) {
	return c.httpClient.doFetchRequest(ctx, path, body)
}

// Token implements Client.Token
func (c *client) Token() Token {
	return c.token
}
