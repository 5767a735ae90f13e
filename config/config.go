package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	Backend       BackendConfig
	Controller    ControllerConfig
	Session       SessionConfig
	Catalog       CatalogConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	AllowedOrigins []string
}

// BackendConfig points at the Transfer Connect backend
type BackendConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// ControllerConfig tunes the client session controller timings
type ControllerConfig struct {
	NavigationDelayMS   int
	SearchSettleDelayMS int
	NotificationTTLMS   int
}

type SessionConfig struct {
	Secret         string
	Issuer         string
	TTLHours       int
	IdleTTLMinutes int
	CookieDomain   string
	CookieSecure   bool
}

type CatalogConfig struct {
	File string
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	ExporterEndpoint  string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

// NewViper returns a viper instance with every default and env binding applied.
// The CLI binds its flags on top of the same instance.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	v.SetDefault("BACKEND_BASE_URL", "http://127.0.0.1:8000")
	v.SetDefault("BACKEND_TIMEOUT_SECONDS", 10)
	v.SetDefault("NAVIGATION_DELAY_MS", 0)
	v.SetDefault("SEARCH_SETTLE_DELAY_MS", 500)
	v.SetDefault("NOTIFICATION_TTL_MS", 3000)
	v.SetDefault("SESSION_ISSUER", "peerconnect-bff")
	v.SetDefault("SESSION_TTL_HOURS", 24)
	v.SetDefault("SESSION_IDLE_TTL_MINUTES", 60)
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "")
	v.SetDefault("O11Y_SERVICE_NAME", "peerconnect-bff")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "transfer-peer-connect")
	v.SetDefault("O11Y_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "peerconnect-bff")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,inuse_space,goroutines")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	return v
}

// Load reads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	v := NewViper()
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist
	return FromViper(v)
}

// FromViper builds and validates a Config from an already prepared viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
		},
		Backend: BackendConfig{
			BaseURL:        strings.TrimRight(v.GetString("BACKEND_BASE_URL"), "/"),
			TimeoutSeconds: v.GetInt("BACKEND_TIMEOUT_SECONDS"),
		},
		Controller: ControllerConfig{
			NavigationDelayMS:   v.GetInt("NAVIGATION_DELAY_MS"),
			SearchSettleDelayMS: v.GetInt("SEARCH_SETTLE_DELAY_MS"),
			NotificationTTLMS:   v.GetInt("NOTIFICATION_TTL_MS"),
		},
		Session: SessionConfig{
			Secret:         v.GetString("SESSION_SECRET"),
			Issuer:         v.GetString("SESSION_ISSUER"),
			TTLHours:       v.GetInt("SESSION_TTL_HOURS"),
			IdleTTLMinutes: v.GetInt("SESSION_IDLE_TTL_MINUTES"),
			CookieDomain:   v.GetString("COOKIE_DOMAIN"),
			CookieSecure:   v.GetBool("COOKIE_SECURE"),
		},
		Catalog: CatalogConfig{
			File: v.GetString("CATALOG_FILE"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint:  v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings every entrypoint needs.
// Server-only requirements live in ValidateServer.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("BACKEND_BASE_URL is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BACKEND_BASE_URL must be an absolute http(s) URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT_SECONDS must be positive")
	}

	if c.Controller.NavigationDelayMS < 0 {
		return fmt.Errorf("NAVIGATION_DELAY_MS must not be negative")
	}
	if c.Controller.SearchSettleDelayMS < 0 {
		return fmt.Errorf("SEARCH_SETTLE_DELAY_MS must not be negative")
	}
	if c.Controller.NotificationTTLMS <= 0 {
		return fmt.Errorf("NOTIFICATION_TTL_MS must be positive")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// ValidateServer checks the settings only the BFF server needs
func (c *Config) ValidateServer() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.Session.TTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	if c.Session.IdleTTLMinutes <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL_MINUTES must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}

// BackendTimeout returns the per-request backend timeout
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// NavigationDelay returns the pause between a successful login and page change
func (c *Config) NavigationDelay() time.Duration {
	return time.Duration(c.Controller.NavigationDelayMS) * time.Millisecond
}

// SearchSettleDelay returns the fallback wait between saving the target school and fetching matches
func (c *Config) SearchSettleDelay() time.Duration {
	return time.Duration(c.Controller.SearchSettleDelayMS) * time.Millisecond
}

// NotificationTTL returns how long a notification stays visible
func (c *Config) NotificationTTL() time.Duration {
	return time.Duration(c.Controller.NotificationTTLMS) * time.Millisecond
}

// SessionIdleTTL returns how long an unused browser session is kept
func (c *Config) SessionIdleTTL() time.Duration {
	return time.Duration(c.Session.IdleTTLMinutes) * time.Minute
}

func splitList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
