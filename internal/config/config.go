// Package config provides configuration loading and validation for the service and CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/paxto2002/blogtalkhees/internal/extract"
	"github.com/paxto2002/blogtalkhees/internal/fetch"
	"github.com/paxto2002/blogtalkhees/internal/lexicon"
	"github.com/paxto2002/blogtalkhees/internal/pipeline"
)

// Config is the full service configuration. It is loaded from an optional
// YAML file over Default() and then overridden from the environment.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Extract   ExtractConfig   `yaml:"extract"`
	Annotator AnnotatorConfig `yaml:"annotator"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" validate:"gte=1,lte=65535"`
	CORSOrigins []string `yaml:"cors_origins"`
	RateLimit   bool     `yaml:"rate_limit"`
}

// FetchConfig configures page retrieval.
type FetchConfig struct {
	Retry   fetch.RetryPolicy `yaml:"retry"`
	Timeout time.Duration     `yaml:"timeout"` // Per attempt

	// Renderers are tried in order within one attempt: http, browser, proxy
	Renderers        []string `yaml:"renderers" validate:"min=1,dive,oneof=http browser proxy"`
	MinContentLength int      `yaml:"min_content_length" validate:"gte=0"`

	UserAgent     string `yaml:"user_agent"`
	BrowserTLS    bool   `yaml:"browser_tls"`
	AllowPrivate  bool   `yaml:"allow_private"`
	MaxBodyBytes  int64  `yaml:"max_body_bytes" validate:"gte=0"`
	MaxConcurrent int    `yaml:"max_concurrent" validate:"gte=0"`

	// CacheTTL expires documents in the blogs store; zero reuses them forever
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"gte=0"`

	Browser BrowserConfig `yaml:"browser"`
	Proxy   ProxyConfig   `yaml:"proxy"`
}

// BrowserConfig configures the headless browser renderer.
type BrowserConfig struct {
	ExecPath         string        `yaml:"exec_path"`
	ScrollIterations int           `yaml:"scroll_iterations" validate:"gte=0,lte=100"`
	ScrollSettle     time.Duration `yaml:"scroll_settle" validate:"gte=0"`
}

// ProxyConfig configures the remote rendering service.
type ProxyConfig struct {
	URL    string `yaml:"url" validate:"omitempty,url"`
	APIKey string `yaml:"api_key"`
}

// ExtractConfig configures article location.
type ExtractConfig struct {
	Strategies     []string `yaml:"strategies"`
	MinRegionChars int      `yaml:"min_region_chars" validate:"gte=0"`
	MinBodyChars   int      `yaml:"min_body_chars" validate:"gte=0"`
	MaxBodyChars   int      `yaml:"max_body_chars" validate:"gte=0"`
}

// AnnotatorConfig selects the lexicon and lookup mode.
type AnnotatorConfig struct {
	Mode        string `yaml:"mode" validate:"oneof=topic word"`
	LexiconPath string `yaml:"lexicon_path"`
}

// PipelineConfig bounds runs and background writes.
type PipelineConfig struct {
	RunTimeout  time.Duration `yaml:"run_timeout" validate:"gt=0"`
	SinkTimeout time.Duration `yaml:"sink_timeout" validate:"gt=0"`
	// MaxCachedRecords bounds completed records held in memory
	MaxCachedRecords int `yaml:"max_cached_records" validate:"gte=0"`
}

// StorageConfig holds one DSN per store. An empty DSN disables that store.
type StorageConfig struct {
	BlogsDatabaseURL     string `yaml:"blogs_database_url"`
	SummariesDatabaseURL string `yaml:"summaries_database_url"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=auto console json"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:      8080,
			RateLimit: true,
		},
		Fetch: FetchConfig{
			Retry:            fetch.DefaultRetryPolicy(),
			Timeout:          fetch.DefaultTimeout,
			Renderers:        []string{fetch.RendererHTTP},
			MinContentLength: fetch.MinContentLength,
			UserAgent:        fetch.DefaultUserAgent,
			BrowserTLS:       true,
			MaxBodyBytes:     fetch.DefaultMaxBodyBytes,
			Browser: BrowserConfig{
				ScrollIterations: fetch.DefaultScrollIterations,
				ScrollSettle:     fetch.DefaultScrollSettle,
			},
			Proxy: ProxyConfig{URL: fetch.DefaultProxyURL},
		},
		Extract: ExtractConfig{
			MinRegionChars: extract.DefaultMinRegionChars,
			MinBodyChars:   extract.DefaultMinBodyChars,
			MaxBodyChars:   extract.DefaultMaxBodyChars,
		},
		Annotator: AnnotatorConfig{
			Mode: string(lexicon.ModeTopic),
		},
		Pipeline: PipelineConfig{
			RunTimeout:       pipeline.DefaultRunTimeout,
			SinkTimeout:      pipeline.DefaultSinkTimeout,
			MaxCachedRecords: pipeline.DefaultMaxCachedRecords,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// LoadConfig loads configuration from a YAML file over Default() and applies
// environment overrides. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		// Resolve path relative to current directory if not absolute
		if !filepath.IsAbs(path) {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get current directory: %w", err)
			}
			path = filepath.Join(cwd, path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables read through getenv.
// DATABASE_URL fills whichever store DSN is still empty.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("BLOGS_DATABASE_URL"); v != "" {
		c.Storage.BlogsDatabaseURL = v
	}
	if v := getenv("SUMMARIES_DATABASE_URL"); v != "" {
		c.Storage.SummariesDatabaseURL = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		if c.Storage.BlogsDatabaseURL == "" {
			c.Storage.BlogsDatabaseURL = v
		}
		if c.Storage.SummariesDatabaseURL == "" {
			c.Storage.SummariesDatabaseURL = v
		}
	}
	if v := getenv("SCRAPER_API_KEY"); v != "" {
		c.Fetch.Proxy.APIKey = v
	}
	if v := getenv("SCRAPER_API_URL"); v != "" {
		c.Fetch.Proxy.URL = v
	}
	if v := getenv("LEXICON_PATH"); v != "" {
		c.Annotator.LexiconPath = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: PORT must be a number, got %q", v)
		}
		c.Server.Port = port
	}
	return nil
}

var validate = validator.New()

// Validate checks field ranges and cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: %s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Fetch.Timeout < fetch.MinTimeout || c.Fetch.Timeout > fetch.MaxTimeout {
		return fmt.Errorf("config error: 'fetch.timeout' must be between %s and %s, got %s",
			fetch.MinTimeout, fetch.MaxTimeout, c.Fetch.Timeout)
	}
	if c.Fetch.Retry.MaxDelay > 0 && c.Fetch.Retry.BaseDelay > c.Fetch.Retry.MaxDelay {
		return fmt.Errorf("config error: 'fetch.retry.base_delay' exceeds 'fetch.retry.max_delay'")
	}
	if c.Extract.MaxBodyChars > 0 && c.Extract.MaxBodyChars < c.Extract.MinBodyChars {
		return fmt.Errorf("config error: 'extract.max_body_chars' is below 'extract.min_body_chars'")
	}
	for _, r := range c.Fetch.Renderers {
		if r == fetch.RendererProxy && c.Fetch.Proxy.APIKey == "" {
			return fmt.Errorf("config error: proxy renderer requires SCRAPER_API_KEY or 'fetch.proxy.api_key'")
		}
	}

	return nil
}

// HTTPOptions builds the HTTP renderer options.
func (f FetchConfig) HTTPOptions() fetch.HTTPOptions {
	opts := fetch.DefaultHTTPOptions()
	opts.Timeout = f.Timeout
	opts.UserAgent = f.UserAgent
	opts.BrowserTLS = f.BrowserTLS
	opts.AllowPrivate = f.AllowPrivate
	opts.MaxBodyBytes = f.MaxBodyBytes
	opts.MaxConcurrent = f.MaxConcurrent
	return opts
}

// BrowserOptions builds the headless browser renderer options logging to log.
func (f FetchConfig) BrowserOptions(log zerolog.Logger) fetch.BrowserOptions {
	opts := fetch.DefaultBrowserOptions()
	opts.Logger = log
	opts.ExecPath = f.Browser.ExecPath
	opts.ScrollIterations = f.Browser.ScrollIterations
	opts.ScrollSettle = f.Browser.ScrollSettle
	opts.UserAgent = f.UserAgent
	return opts
}

// Options builds the extractor options.
func (e ExtractConfig) Options() extract.Options {
	opts := extract.DefaultOptions()
	if len(e.Strategies) > 0 {
		opts.Strategies = extract.StrategiesFromNames(e.Strategies)
	}
	opts.MinRegionChars = e.MinRegionChars
	opts.MinBodyChars = e.MinBodyChars
	opts.MaxBodyChars = e.MaxBodyChars
	return opts
}
