// Package config loads service configuration in layers: struct defaults,
// an optional YAML file, .env files, then TRIALS_ environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix is stripped from environment variables. A double underscore
// separates nesting levels: TRIALS_FETCHER__MAX_STUDIES -> fetcher.max_studies.
const EnvPrefix = "TRIALS_"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/trials-map/config.yaml",
}

// Fetch strategies.
const (
	StrategyDownload = "download"
	StrategyStudies  = "studies"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Fetcher FetcherConfig `koanf:"fetcher"`
	Country CountryConfig `koanf:"country"`
	Chart   ChartConfig   `koanf:"chart"`
	Logging LoggingConfig `koanf:"logging"`
	HTTP    HTTPConfig    `koanf:"http"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Debug           bool          `koanf:"debug"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type FetcherConfig struct {
	Strategy      string        `koanf:"strategy"`
	BaseURL       string        `koanf:"base_url"`
	Timeout       time.Duration `koanf:"timeout"`
	MaxStudies    int           `koanf:"max_studies"`
	MaxFieldBytes int           `koanf:"max_field_bytes"`
	MaxBodyBytes  int64         `koanf:"max_body_bytes"`
	UserAgent     string        `koanf:"user_agent"`
	Breaker       BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes the circuit breaker around registry calls.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

type CountryConfig struct {
	// MatchCodes also matches standalone ISO alpha-2 tokens ("US").
	MatchCodes bool `koanf:"match_codes"`
}

type ChartConfig struct {
	// AssetsHost serves echarts.min.js and the world map; empty uses the
	// go-echarts CDN. Must end with a slash.
	AssetsHost string `koanf:"assets_host"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type HTTPConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Fetcher: FetcherConfig{
			Strategy:      StrategyDownload,
			BaseURL:       "https://clinicaltrials.gov",
			Timeout:       60 * time.Second,
			MaxStudies:    1000,
			MaxFieldBytes: 10 << 20,
			MaxBodyBytes:  256 << 20,
			UserAgent:     "trials-map/1.0",
			Breaker: BreakerConfig{
				MaxRequests:      1,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		HTTP: HTTPConfig{
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 60,
			RateLimitWindow:   time.Minute,
		},
	}
}

// Load builds the configuration. An explicit path wins over CONFIG_PATH and
// the default search paths.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitCommaList(k, "http.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if cfg.Server.Debug {
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "console"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadEnvFiles loads .env.local then .env. Existing variables are never
// overwritten, so .env.local takes precedence.
func loadEnvFiles() error {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc maps TRIALS_SERVER__PORT to server.port.
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	if key == "" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

// splitCommaList turns a comma-separated env value into a slice.
func splitCommaList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if err := k.Set(path, parts); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Fetcher.Strategy {
	case StrategyDownload, StrategyStudies:
	default:
		errs = append(errs, fmt.Errorf("fetcher.strategy must be %q or %q, got %q", StrategyDownload, StrategyStudies, c.Fetcher.Strategy))
	}
	if u, err := url.Parse(c.Fetcher.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("fetcher.base_url must be an absolute URL, got %q", c.Fetcher.BaseURL))
	}
	if c.Fetcher.Timeout <= 0 {
		errs = append(errs, errors.New("fetcher.timeout must be positive"))
	}
	if c.Fetcher.MaxStudies <= 0 {
		errs = append(errs, errors.New("fetcher.max_studies must be positive"))
	}
	if c.Fetcher.MaxFieldBytes <= 0 {
		errs = append(errs, errors.New("fetcher.max_field_bytes must be positive"))
	}
	if c.Fetcher.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("fetcher.max_body_bytes must be positive"))
	}
	if c.Fetcher.Breaker.FailureThreshold == 0 {
		errs = append(errs, errors.New("fetcher.breaker.failure_threshold must be positive"))
	}

	if h := c.Chart.AssetsHost; h != "" {
		if u, err := url.Parse(h); err != nil || u.Scheme == "" || u.Host == "" || !strings.HasSuffix(h, "/") {
			errs = append(errs, fmt.Errorf("chart.assets_host must be an absolute URL ending in /, got %q", h))
		}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}

	if !c.HTTP.RateLimitDisabled && (c.HTTP.RateLimitRequests <= 0 || c.HTTP.RateLimitWindow <= 0) {
		errs = append(errs, errors.New("http.rate_limit_requests and http.rate_limit_window must be positive"))
	}

	return errors.Join(errs...)
}
