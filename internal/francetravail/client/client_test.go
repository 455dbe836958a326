package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoRecordXML = `
<root>
	<item>
		<title>Item 1</title>
		<description>Description 1</description>
	</item>
	<item>
		<title>Item 2</title>
		<description>Description 2</description>
	</item>
</root>`

func testConfig(baseURL, authURL string) Config {
	return Config{
		BaseURL: baseURL,
		AuthURL: authURL,
		Credentials: Credentials{
			ClientID:     "PAR_test_client",
			ClientSecret: "s3cr3t",
		},
		Realm:   DefaultRealm,
		Scopes:  DefaultScopes(),
		Timeout: 5 * time.Second,
		Logger:  NewNoopLogger(),
	}
}

func newAuthServer(t *testing.T, status int, response map[string]interface{}) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid testing config",
			config: Config{
				BaseURL: DefaultBaseURL,
				Testing: true,
				Logger:  NewNoopLogger(),
			},
			wantErr: false,
		},
		{
			name: "missing base URL",
			config: Config{
				Testing: true,
				Logger:  NewNoopLogger(),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(context.Background(), tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, client)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, client)
			}
		})
	}
}

func TestNew_TestingModeSkipsNetwork(t *testing.T) {
	server, calls := newAuthServer(t, http.StatusOK, map[string]interface{}{"access_token": "real"})

	cfg := testConfig(server.URL, server.URL)
	cfg.Testing = true

	client, err := New(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, TestingToken, client.Token().AccessToken)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestNew_ObtainsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "partenaire", r.URL.Query().Get("realm"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "PAR_test_client", r.PostForm.Get("client_id"))
		assert.Equal(t, "s3cr3t", r.PostForm.Get("client_secret"))
		assert.Equal(t, "api_stats-offres-demandes-emploiv1 offresetdemandesemploi", r.PostForm.Get("scope"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok-123",
			"scope":        "api_stats-offres-demandes-emploiv1 offresetdemandesemploi",
			"expires_in":   1499,
			"token_type":   "Bearer",
		})
	}))
	defer server.Close()

	client, err := New(context.Background(), testConfig(server.URL, server.URL))
	require.NoError(t, err)

	token := client.Token()
	assert.Equal(t, "tok-123", token.AccessToken)
	assert.NotEqual(t, TestingToken, token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, 1499*time.Second, token.ExpiresIn)
	assert.False(t, token.Expired(time.Now()))
	assert.True(t, token.Expired(time.Now().Add(25*time.Minute)))
}

func TestObtainAccessToken_ErrorCodes(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{name: "invalid client", code: "invalid_client", wantErr: ErrInvalidCredentials},
		{name: "invalid scope", code: "invalid_scope", wantErr: ErrInvalidScope},
		{name: "unsupported grant type", code: "unsupported_grant_type", wantErr: ErrUnsupportedGrantType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newAuthServer(t, http.StatusOK, map[string]interface{}{
				"error":             tt.code,
				"error_description": "rejected",
			})

			_, err := New(context.Background(), testConfig(server.URL, server.URL))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, AuthErrorCode(tt.code), authErr.Code)
			assert.Contains(t, err.Error(), "rejected")
		})
	}
}

func TestObtainAccessToken_UnknownErrorCodeIsSuccess(t *testing.T) {
	server, _ := newAuthServer(t, http.StatusOK, map[string]interface{}{
		"error":        "temporarily_unavailable",
		"access_token": "tok-456",
	})

	client, err := New(context.Background(), testConfig(server.URL, server.URL))
	require.NoError(t, err)
	assert.Equal(t, "tok-456", client.Token().AccessToken)
}

func TestObtainAccessToken_HTTPError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		code        string
		description string
		configure   func(*Config)
		wantErr     error
	}{
		{
			name:        "bad client id",
			status:      http.StatusUnauthorized,
			code:        "invalid_client",
			description: "Client authentication failed",
			configure:   func(c *Config) { c.Credentials.ClientID = "bad_client_id" },
			wantErr:     ErrInvalidCredentials,
		},
		{
			name:        "bad client secret",
			status:      http.StatusUnauthorized,
			code:        "invalid_client",
			description: "Client authentication failed",
			configure:   func(c *Config) { c.Credentials.ClientSecret = "bad_secret" },
			wantErr:     ErrInvalidCredentials,
		},
		{
			name:        "bad scope",
			status:      http.StatusBadRequest,
			code:        "invalid_scope",
			description: "Invalid scope",
			configure:   func(c *Config) { c.Scopes = []string{"bad_scope"} },
			wantErr:     ErrInvalidScope,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newAuthServer(t, tt.status, map[string]interface{}{
				"error":             tt.code,
				"error_description": tt.description,
			})

			cfg := testConfig(server.URL, server.URL)
			tt.configure(&cfg)

			_, err := New(context.Background(), cfg)
			require.Error(t, err)

			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Contains(t, httpErr.Body, tt.description)
			assert.ErrorIs(t, err, tt.wantErr)

			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, AuthErrorCode(tt.code), authErr.Code)
		})
	}
}

func TestClient_TimeoutAppliesToCustomHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client, err := New(context.Background(), Config{
		BaseURL:    server.URL,
		Testing:    true,
		Timeout:    50 * time.Millisecond,
		HTTPClient: &http.Client{},
		Logger:     NewNoopLogger(),
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = client.FetchEndpoint(context.Background(), "stats", nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestObtainAccessToken_HTTPErrorWithoutCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "bad request")
	}))
	defer server.Close()

	client, err := New(context.Background(), Config{
		BaseURL: server.URL,
		AuthURL: server.URL,
		Testing: true,
		Logger:  NewNoopLogger(),
	})
	require.NoError(t, err)

	_, err = client.ObtainAccessToken(context.Background(), DefaultRealm, []string{"bad_scope"})
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "bad request", httpErr.Body)
	assert.Nil(t, errors.Unwrap(httpErr))
}

func TestObtainAccessToken_MissingToken(t *testing.T) {
	server, _ := newAuthServer(t, http.StatusOK, map[string]interface{}{"scope": "x"})

	_, err := New(context.Background(), testConfig(server.URL, server.URL))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no access_token")
}

func TestClient_FetchEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/stats-offres-demandes-emploi/v1/indicateur/stat-embauches", r.URL.Path)
		assert.Equal(t, "Bearer "+TestingToken, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/xml, application/json", r.Header.Get("Accept"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "DEP", body["codeTypeTerritoire"])
		assert.Equal(t, true, body["dernierePeriode"])

		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, twoRecordXML)
	}))
	defer server.Close()

	client, err := New(context.Background(), Config{
		BaseURL: server.URL + "/",
		Testing: true,
		Logger:  NewNoopLogger(),
	})
	require.NoError(t, err)

	table, err := client.FetchEndpoint(context.Background(), "stats-offres-demandes-emploi/v1/indicateur/stat-embauches", Params{
		"codeTypeTerritoire": "DEP",
		"dernierePeriode":    true,
	})
	require.NoError(t, err)

	rows, cols := table.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, []string{"title", "description"}, table.Columns)
}

func TestClient_FetchEndpointHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"forbidden"}`)
	}))
	defer server.Close()

	client, err := New(context.Background(), Config{BaseURL: server.URL, Testing: true})
	require.NoError(t, err)

	_, err = client.FetchEndpoint(context.Background(), "stat", nil)
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
	assert.Contains(t, err.Error(), "status 403")
}

func TestClient_FetchEndpointMalformedXML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<root><item></root>")
	}))
	defer server.Close()

	client, err := New(context.Background(), Config{BaseURL: server.URL, Testing: true})
	require.NoError(t, err)

	_, err = client.FetchEndpoint(context.Background(), "stat", Params{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func TestClient_FetchEndpointEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := New(context.Background(), Config{BaseURL: server.URL, Testing: true})
	require.NoError(t, err)

	table, err := client.FetchEndpoint(context.Background(), "stat", Params{})
	require.NoError(t, err)
	assert.True(t, table.Empty())
}

func TestClient_FetchEndpointCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, twoRecordXML)
	}))
	defer server.Close()

	client, err := New(context.Background(), Config{BaseURL: server.URL, Testing: true})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.FetchEndpoint(ctx, "stat", Params{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig(Credentials{ClientID: "id", ClientSecret: "secret"})

	assert.Equal(t, "https://api.francetravail.io/partenaire/", config.BaseURL)
	assert.Equal(t, "https://entreprise.francetravail.fr/connexion/oauth2/access_token", config.AuthURL)
	assert.Equal(t, "partenaire", config.Realm)
	assert.Equal(t, []string{"api_stats-offres-demandes-emploiv1", "offresetdemandesemploi"}, config.Scopes)
	assert.Equal(t, 60*time.Second, config.Timeout)
	assert.Equal(t, "id", config.Credentials.ClientID)
	assert.False(t, config.Testing)
	assert.NotNil(t, config.Logger)
}

func TestParams_Merge(t *testing.T) {
	defaults := Params{"codeTerritoire": "13", "codeTypePeriode": "TRIMESTRE"}
	merged := defaults.Merge(Params{"codeTerritoire": "75"}, Params{"dernierePeriode": true})

	assert.Equal(t, "75", merged["codeTerritoire"])
	assert.Equal(t, "TRIMESTRE", merged["codeTypePeriode"])
	assert.Equal(t, true, merged["dernierePeriode"])
	assert.Equal(t, "13", defaults["codeTerritoire"], "receiver must not be modified")
}

// Example usage demonstration
func ExampleNew() {
	client, err := New(context.Background(), DefaultConfig(Credentials{
		ClientID:     "your-client-id",
		ClientSecret: "your-client-secret",
	}))
	if err != nil {
		panic(err)
	}

	table, err := client.FetchEndpoint(context.Background(),
		"stats-offres-demandes-emploi/v1/indicateur/stat-offres",
		Params{"codeTypeTerritoire": "DEP", "codeTerritoire": "13"},
	)
	if err != nil {
		panic(err)
	}

	for _, rec := range table.Records() {
		fmt.Println(rec)
	}
}
