package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paxto2002/blogtalkhees/internal/fetch"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Fetch.Retry.Attempts)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, []string{"http"}, cfg.Fetch.Renderers)
	assert.Equal(t, "topic", cfg.Annotator.Mode)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.RunTimeout)
	assert.Equal(t, 10000, cfg.Extract.MaxBodyChars)
	assert.Zero(t, cfg.Fetch.CacheTTL, "stored documents never expire by default")
}

func TestLoadConfig_YAMLOverDefaults(t *testing.T) {
	content := `
server:
  port: 9090
fetch:
  timeout: 20s
  renderers: [http, browser]
  cache_ttl: 168h
  retry:
    attempts: 5
    base_delay: 500ms
annotator:
  mode: word
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 20*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, []string{"http", "browser"}, cfg.Fetch.Renderers)
	assert.Equal(t, 5, cfg.Fetch.Retry.Attempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Fetch.Retry.BaseDelay)
	assert.Equal(t, 7*24*time.Hour, cfg.Fetch.CacheTTL)
	assert.Equal(t, "word", cfg.Annotator.Mode)

	// Untouched fields keep their defaults
	assert.Equal(t, 5*time.Second, cfg.Fetch.Retry.MaxDelay)
	assert.Equal(t, 200, cfg.Extract.MinRegionChars)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("server: [unclosed"), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfig_ReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("LEXICON_PATH", "/etc/lexicon.json")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/etc/lexicon.json", cfg.Annotator.LexiconPath)
}

func TestApplyEnv_DatabaseURLFallback(t *testing.T) {
	tests := []struct {
		name          string
		env           map[string]string
		wantBlogs     string
		wantSummaries string
	}{
		{
			name:          "shared url fills both",
			env:           map[string]string{"DATABASE_URL": "postgres://shared"},
			wantBlogs:     "postgres://shared",
			wantSummaries: "postgres://shared",
		},
		{
			name: "specific urls win",
			env: map[string]string{
				"DATABASE_URL":           "postgres://shared",
				"BLOGS_DATABASE_URL":     "postgres://blogs",
				"SUMMARIES_DATABASE_URL": "postgres://summaries",
			},
			wantBlogs:     "postgres://blogs",
			wantSummaries: "postgres://summaries",
		},
		{
			name: "shared url fills the missing one",
			env: map[string]string{
				"DATABASE_URL":       "postgres://shared",
				"BLOGS_DATABASE_URL": "postgres://blogs",
			},
			wantBlogs:     "postgres://blogs",
			wantSummaries: "postgres://shared",
		},
		{
			name: "no urls",
			env:  map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.ApplyEnv(envMap(tt.env)))
			assert.Equal(t, tt.wantBlogs, cfg.Storage.BlogsDatabaseURL)
			assert.Equal(t, tt.wantSummaries, cfg.Storage.SummariesDatabaseURL)
		})
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"SCRAPER_API_KEY": "secret",
		"SCRAPER_API_URL": "https://proxy.example.com/",
		"LOG_LEVEL":       "DEBUG",
	}))
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Fetch.Proxy.APIKey)
	assert.Equal(t, "https://proxy.example.com/", cfg.Fetch.Proxy.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestApplyEnv_BadPort(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{"PORT": "eighty"}))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "PORT must be a number")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"timeout too short", func(c *Config) { c.Fetch.Timeout = 5 * time.Second }, "fetch.timeout"},
		{"timeout too long", func(c *Config) { c.Fetch.Timeout = time.Minute }, "fetch.timeout"},
		{"unknown mode", func(c *Config) { c.Annotator.Mode = "both" }, "Mode"},
		{"unknown renderer", func(c *Config) { c.Fetch.Renderers = []string{"curl"} }, "Renderers"},
		{"no renderers", func(c *Config) { c.Fetch.Renderers = nil }, "Renderers"},
		{"zero attempts", func(c *Config) { c.Fetch.Retry.Attempts = 0 }, "Attempts"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "Port"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "Level"},
		{"base above max delay", func(c *Config) { c.Fetch.Retry.BaseDelay = 10 * time.Second }, "base_delay"},
		{"body cap below minimum", func(c *Config) { c.Extract.MaxBodyChars = 50 }, "max_body_chars"},
		{"proxy without key", func(c *Config) { c.Fetch.Renderers = []string{"http", "proxy"} }, "SCRAPER_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidate_ProxyWithKey(t *testing.T) {
	cfg := Default()
	cfg.Fetch.Renderers = []string{"http", "proxy"}
	cfg.Fetch.Proxy.APIKey = "key"
	assert.NoError(t, cfg.Validate())
}

func TestFetchConfig_Options(t *testing.T) {
	cfg := Default()
	cfg.Fetch.AllowPrivate = true
	cfg.Fetch.MaxConcurrent = 4
	cfg.Fetch.Browser.ExecPath = "/usr/bin/chromium"

	httpOpts := cfg.Fetch.HTTPOptions()
	assert.True(t, httpOpts.AllowPrivate)
	assert.Equal(t, 4, httpOpts.MaxConcurrent)
	assert.Equal(t, fetch.DefaultTimeout, httpOpts.Timeout)

	var logs bytes.Buffer
	browserOpts := cfg.Fetch.BrowserOptions(zerolog.New(&logs))
	assert.Equal(t, "/usr/bin/chromium", browserOpts.ExecPath)
	assert.Equal(t, fetch.DefaultScrollIterations, browserOpts.ScrollIterations)
	browserOpts.Logger.Debug().Msg("render started")
	assert.Contains(t, logs.String(), "render started")
}

func TestExtractConfig_Options(t *testing.T) {
	cfg := Default()
	assert.Len(t, cfg.Extract.Options().Strategies, 11)

	cfg.Extract.Strategies = []string{"article", "readability"}
	opts := cfg.Extract.Options()
	require.Len(t, opts.Strategies, 2)
	assert.Equal(t, "readability", opts.Strategies[1].Name())
}
