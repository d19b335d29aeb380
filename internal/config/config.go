// Package config loads graphcal configuration from a TOML file, a .env file
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const appName = "graphcal"

// Environment variable overrides.
const (
	EnvClientID     = "GRAPHCAL_CLIENT_ID"
	EnvClientSecret = "GRAPHCAL_CLIENT_SECRET" //nolint:gosec // G101: variable name, not a credential
	EnvTenantID     = "GRAPHCAL_TENANT_ID"
	EnvListen       = "GRAPHCAL_LISTEN"
	EnvBaseURL      = "GRAPHCAL_BASE_URL"
)

// ErrMissingCredentials indicates the app registration is not configured.
var ErrMissingCredentials = errors.New("config: azure_ad client_id and client_secret are required")

// AzureADConfig describes the app registration used for sign-in.
type AzureADConfig struct {
	Instance     string   `toml:"instance"`
	TenantID     string   `toml:"tenant_id"`
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	CallbackPath string   `toml:"callback_path"`
	Prompt       string   `toml:"prompt"`
	Scopes       []string `toml:"scopes"`
}

// GraphConfig tunes Microsoft Graph access.
type GraphConfig struct {
	BaseURL           string  `toml:"base_url"`
	PageSize          int     `toml:"page_size"`
	PhotoSize         string  `toml:"photo_size"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `toml:"listen"`
	// BaseURL is the externally visible origin, used to build the OAuth redirect URI.
	BaseURL string `toml:"base_url"`
	// DatabasePath is the SQLite session database.
	DatabasePath string `toml:"database_path"`
	// TemplateDir, if set, loads templates from disk and reloads them on change.
	TemplateDir string `toml:"template_dir"`
	// SessionHours is the session lifetime.
	SessionHours int `toml:"session_hours"`
	// PruneSchedule is a cron schedule (e.g. "@every 10m" or "*/15 * * * *")
	// for removing expired sessions.
	PruneSchedule string `toml:"prune_schedule"`

	AzureAD AzureADConfig `toml:"azure_ad"`
	Graph   GraphConfig   `toml:"graph"`
}

// DefaultScopes are the delegated permissions requested at sign-in.
var DefaultScopes = []string{
	"openid",
	"profile",
	"offline_access",
	"User.Read",
	"MailboxSettings.Read",
	"Calendars.ReadWrite",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        "127.0.0.1:5000",
		BaseURL:       "http://localhost:5000",
		DatabasePath:  DefaultDatabasePath(),
		SessionHours:  8,
		PruneSchedule: "@every 10m",
		AzureAD: AzureADConfig{
			Instance:     "https://login.microsoftonline.com/",
			TenantID:     "common",
			CallbackPath: "/signin-oidc",
			Prompt:       "select_account",
			Scopes:       append([]string(nil), DefaultScopes...),
		},
		Graph: GraphConfig{
			BaseURL:           "https://graph.microsoft.com/v1.0",
			PageSize:          50,
			PhotoSize:         "48x48",
			RequestsPerSecond: 10,
			Burst:             15,
			TimeoutSeconds:    60,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// DefaultDatabasePath returns the default session database location.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, appName, appName+".db")
}

// Normalize fills in missing values with defaults.
func (c *Config) Normalize() {
	d := DefaultConfig()

	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.DatabasePath == "" {
		c.DatabasePath = d.DatabasePath
	}
	if c.SessionHours <= 0 {
		c.SessionHours = d.SessionHours
	}
	if strings.TrimSpace(c.PruneSchedule) == "" {
		c.PruneSchedule = d.PruneSchedule
	}

	if c.AzureAD.Instance == "" {
		c.AzureAD.Instance = d.AzureAD.Instance
	}
	if c.AzureAD.TenantID == "" {
		c.AzureAD.TenantID = d.AzureAD.TenantID
	}
	if c.AzureAD.CallbackPath == "" {
		c.AzureAD.CallbackPath = d.AzureAD.CallbackPath
	}
	if !strings.HasPrefix(c.AzureAD.CallbackPath, "/") {
		c.AzureAD.CallbackPath = "/" + c.AzureAD.CallbackPath
	}
	if c.AzureAD.Prompt == "" {
		c.AzureAD.Prompt = d.AzureAD.Prompt
	}
	if len(c.AzureAD.Scopes) == 0 {
		c.AzureAD.Scopes = d.AzureAD.Scopes
	}

	if c.Graph.BaseURL == "" {
		c.Graph.BaseURL = d.Graph.BaseURL
	}
	c.Graph.BaseURL = strings.TrimRight(c.Graph.BaseURL, "/")
	if c.Graph.PageSize <= 0 {
		c.Graph.PageSize = d.Graph.PageSize
	}
	if c.Graph.PhotoSize == "" {
		c.Graph.PhotoSize = d.Graph.PhotoSize
	}
	if c.Graph.RequestsPerSecond <= 0 {
		c.Graph.RequestsPerSecond = d.Graph.RequestsPerSecond
	}
	if c.Graph.Burst <= 0 {
		c.Graph.Burst = d.Graph.Burst
	}
	if c.Graph.TimeoutSeconds <= 0 {
		c.Graph.TimeoutSeconds = d.Graph.TimeoutSeconds
	}
}

// Validate checks that the configuration can be used to serve.
func (c *Config) Validate() error {
	if c.AzureAD.ClientID == "" || c.AzureAD.ClientSecret == "" {
		return ErrMissingCredentials
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("config: base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	return nil
}

// RedirectURL returns the OAuth redirect URI.
func (c *Config) RedirectURL() string {
	return c.BaseURL + c.AzureAD.CallbackPath
}

// SessionTTL returns the session lifetime.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionHours) * time.Hour
}

// GraphTimeout returns the HTTP timeout for Graph requests.
func (c *Config) GraphTimeout() time.Duration {
	return time.Duration(c.Graph.TimeoutSeconds) * time.Second
}

// SecureCookies reports whether cookies should carry the Secure attribute.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}

// Load reads configuration from path, then applies .env and environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// defaults
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// A .env file is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()
	cfg.Normalize()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvClientID); v != "" {
		c.AzureAD.ClientID = v
	}
	if v := os.Getenv(EnvClientSecret); v != "" {
		c.AzureAD.ClientSecret = v
	}
	if v := os.Getenv(EnvTenantID); v != "" {
		c.AzureAD.TenantID = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".graphcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
