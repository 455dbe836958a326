// Package config loads credentials and query defaults from the environment,
// an optional .env file and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"

	"github.com/datalab-emploi/francetravail-stats/internal/francetravail/client"
	"github.com/datalab-emploi/francetravail-stats/internal/francetravail/stats"
)

// Env holds the variables read from the process environment.
type Env struct {
	ClientID  string `envconfig:"GOUV_API_CLIENT_ID"`
	SecretKey string `envconfig:"GOUV_API_SECRET_KEY"`

	LogLevel string `envconfig:"FT_LOG_LEVEL"`
	Testing  *bool  `envconfig:"FT_TESTING"`
	BaseURL  string `envconfig:"FT_BASE_URL"`
	AuthURL  string `envconfig:"FT_AUTH_URL"`
}

// File is the YAML configuration file layout.
type File struct {
	Credentials           client.Credentials   `yaml:"credentials"`
	Classification        stats.Classification `yaml:"classification"`
	Realm                 string               `yaml:"realm"`
	Scopes                []string             `yaml:"scopes"`
	BaseURL               string               `yaml:"base_url"`
	AuthURL               string               `yaml:"auth_url"`
	RequestTimeoutSeconds int                  `yaml:"request_timeout_seconds"`
	LogLevel              string               `yaml:"log_level"`
	Testing               bool                 `yaml:"testing"`
}

// Config is the resolved configuration.
type Config struct {
	Credentials    client.Credentials
	Classification stats.Classification
	Realm          string
	Scopes         []string
	BaseURL        string
	AuthURL        string
	Timeout        time.Duration
	LogLevel       string
	Testing        bool
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Classification: stats.DefaultClassification(),
		Realm:          client.DefaultRealm,
		Scopes:         client.DefaultScopes(),
		BaseURL:        client.DefaultBaseURL,
		AuthURL:        client.DefaultAuthURL,
		Timeout:        60 * time.Second,
		LogLevel:       "info",
	}
}

// Load resolves the configuration. Environment variables win over the file
// at path, which wins over defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		cfg.applyFile(f)
	}

	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	cfg.applyEnv(env)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotenv sets variables from the given files without overriding
// variables already present. Missing files are ignored.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := gotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ReadFile parses the YAML file at path.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return &f, nil
}

func (c *Config) applyFile(f *File) {
	if f.Credentials.ClientID != "" {
		c.Credentials.ClientID = f.Credentials.ClientID
	}
	if f.Credentials.ClientSecret != "" {
		c.Credentials.ClientSecret = f.Credentials.ClientSecret
	}
	c.Classification = f.Classification.WithDefaults()
	if f.Realm != "" {
		c.Realm = f.Realm
	}
	if len(f.Scopes) > 0 {
		c.Scopes = f.Scopes
	}
	if f.BaseURL != "" {
		c.BaseURL = f.BaseURL
	}
	if f.AuthURL != "" {
		c.AuthURL = f.AuthURL
	}
	if f.RequestTimeoutSeconds != 0 {
		c.Timeout = time.Duration(f.RequestTimeoutSeconds) * time.Second
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	c.Testing = f.Testing
}

func (c *Config) applyEnv(e Env) {
	if e.ClientID != "" {
		c.Credentials.ClientID = e.ClientID
	}
	if e.SecretKey != "" {
		c.Credentials.ClientSecret = e.SecretKey
	}
	if e.LogLevel != "" {
		c.LogLevel = e.LogLevel
	}
	if e.Testing != nil {
		c.Testing = *e.Testing
	}
	if e.BaseURL != "" {
		c.BaseURL = e.BaseURL
	}
	if e.AuthURL != "" {
		c.AuthURL = e.AuthURL
	}
}

// Validate checks the resolved configuration. Missing credentials are not
// an error here; the token endpoint rejects them.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	return c.Classification.Validate()
}

// ClientConfig converts the configuration into a client configuration.
func (c *Config) ClientConfig(logger client.Logger) client.Config {
	cc := client.DefaultConfig(c.Credentials)
	cc.BaseURL = c.BaseURL
	cc.AuthURL = c.AuthURL
	cc.Realm = c.Realm
	cc.Scopes = c.Scopes
	cc.Timeout = c.Timeout
	cc.Testing = c.Testing
	if logger != nil {
		cc.Logger = logger
	}
	return cc
}
