// Package config loads pagesync settings from a TOML file, an optional .env
// file and the environment, in that order of precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Source contains settings for the remote page source
type Source struct {
	BaseURL        string `toml:"base_url"`
	AssetBaseURL   string `toml:"asset_base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

// Timeout returns the request timeout as a duration
func (s Source) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Notion contains settings for publishing pages to Notion
type Notion struct {
	Enabled      bool   `toml:"enabled"`
	ParentPageID string `toml:"parent_page_id"`
	APIKey       string `toml:"api_key"`
}

// Log contains logger settings
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full pagesync configuration
type Config struct {
	Root     string `toml:"root"`
	ImageDir string `toml:"image_dir"`
	Source   Source `toml:"source"`
	Notion   Notion `toml:"notion"`
	Log      Log    `toml:"log"`
}

// DefaultPath returns the XDG location of the config file
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "pagesync", "config.toml")
}

// Load reads the config file at path, then applies .env and environment
// overrides. A missing file is not an error; defaults are used instead.
// An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	cfg.applyEnv()

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PAGESYNC_ROOT"); v != "" {
		c.Root = v
	}
	if v := os.Getenv("PAGESYNC_BASE_URL"); v != "" {
		c.Source.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("NOTION_API_KEY"); v != "" {
		c.Notion.APIKey = v
	}
	if v := os.Getenv("NOTION_PARENT_PAGE_ID"); v != "" {
		c.Notion.ParentPageID = v
	}
}

func (c *Config) normalize() {
	c.Root = strings.TrimSpace(c.Root)
	c.ImageDir = strings.TrimSpace(c.ImageDir)
	if c.ImageDir == "" {
		c.ImageDir = defaultImageDir
	}
	c.Source.BaseURL = strings.TrimRight(strings.TrimSpace(c.Source.BaseURL), "/")
	c.Source.AssetBaseURL = strings.TrimRight(strings.TrimSpace(c.Source.AssetBaseURL), "/")
	if c.Source.TimeoutSeconds <= 0 {
		c.Source.TimeoutSeconds = defaultTimeoutSeconds
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
}

// Validate checks that required settings are present and well formed
func (c *Config) Validate() error {
	var errs []error
	if c.Root == "" {
		errs = append(errs, errors.New("root is required"))
	}
	if strings.ContainsAny(c.ImageDir, `/\`) {
		errs = append(errs, fmt.Errorf("image_dir %q must be a single directory name", c.ImageDir))
	}
	for name, raw := range map[string]string{"source.base_url": c.Source.BaseURL, "source.asset_base_url": c.Source.AssetBaseURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s %q must be an absolute URL", name, raw))
		}
	}
	if c.Notion.Enabled {
		if c.Notion.APIKey == "" {
			errs = append(errs, errors.New("notion.api_key (or NOTION_API_KEY) is required when notion is enabled"))
		}
		if c.Notion.ParentPageID == "" {
			errs = append(errs, errors.New("notion.parent_page_id (or NOTION_PARENT_PAGE_ID) is required when notion is enabled"))
		}
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}
