package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/platform"
)

// ErrMissingBaseURL is returned when no absolute API base URL is configured.
var ErrMissingBaseURL = errors.New("API base URL is not configured (set NUTRI_API_URL)")

// Config holds runtime settings for the NutriKeeper CLI.
type Config struct {
	BaseURL  string
	Platform platform.Platform
	DataDir  string
	LogLevel string

	// DeviceSecret, when set, replaces the generated secret in
	// DataDir/device.key that seals the secure store.
	DeviceSecret string

	// MetricsAddr, when set, serves Prometheus metrics on host:port.
	MetricsAddr string

	RequestTimeout      time.Duration
	NetworkRetryDelay   time.Duration
	AnalysisTimeout     time.Duration
	AnalysisAttempts    int
	AnalysisBackoff     time.Duration
	QueryCacheTTL       time.Duration
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with defaults. BaseURL has none.
func (c *Config) LoadDefaults() {
	c.Platform = platform.IOS
	c.DataDir = defaultDataDir()
	c.LogLevel = "info"
	c.RequestTimeout = 30 * time.Second
	c.NetworkRetryDelay = time.Second
	c.AnalysisTimeout = 45 * time.Second
	c.AnalysisAttempts = 3
	c.AnalysisBackoff = time.Second
	c.QueryCacheTTL = 5 * time.Minute
	c.OnlineCheckInterval = 3 * time.Second
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "nutrikeeper")
	}
	return ".nutrikeeper"
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute URL", ErrMissingBaseURL, c.BaseURL)
	}
	if _, err := platform.Parse(string(c.Platform)); err != nil {
		return err
	}
	if c.DataDir == "" {
		return errors.New("data dir is empty")
	}

	positive := []struct {
		name string
		d    time.Duration
	}{
		{"request timeout", c.RequestTimeout},
		{"analysis timeout", c.AnalysisTimeout},
		{"analysis backoff", c.AnalysisBackoff},
		{"query cache ttl", c.QueryCacheTTL},
		{"online check interval", c.OnlineCheckInterval},
	}
	for _, p := range positive {
		if p.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", p.name, p.d)
		}
	}
	if c.NetworkRetryDelay < 0 {
		return errors.New("network retry delay must not be negative")
	}
	if c.AnalysisAttempts < 1 {
		return fmt.Errorf("analysis attempts must be at least 1, got %d", c.AnalysisAttempts)
	}
	return nil
}

// LoadConfig builds the configuration from the process environment and
// command line.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.LookupEnv)
}

// Load applies defaults, then the dotenv file, environment variables, the
// JSON file and finally flags. Later sources take precedence.
func Load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	env, err := readEnv(args, lookup)
	if err != nil {
		return nil, err
	}
	parseEnv(cfg, env)

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
