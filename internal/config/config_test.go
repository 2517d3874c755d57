package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the variables Load reads and runs the test in an empty
// working directory so no stray .env file is picked up
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PAGESYNC_ROOT", "PAGESYNC_BASE_URL", "LOG_LEVEL", "NOTION_API_KEY", "NOTION_PARENT_PAGE_ID"} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout())
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
root = "/srv/hs-ru"
image_dir = "images"

[source]
base_url = "http://mirror.example/6/"
timeout_seconds = 5

[log]
level = "DEBUG"
format = "json"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/hs-ru", cfg.Root)
	assert.Equal(t, "images", cfg.ImageDir)
	assert.Equal(t, "http://mirror.example/6", cfg.Source.BaseURL)
	assert.Equal(t, defaultAssetBaseURL, cfg.Source.AssetBaseURL)
	assert.Equal(t, 5*time.Second, cfg.Source.Timeout())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("root = \"/from/file\"\n[notion]\nenabled = true\n"), 0o644))

	t.Setenv("PAGESYNC_ROOT", "/from/env")
	t.Setenv("NOTION_API_KEY", "secret")
	t.Setenv("NOTION_PARENT_PAGE_ID", "parent")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Root)
	assert.Equal(t, "secret", cfg.Notion.APIKey)
	assert.Equal(t, "parent", cfg.Notion.ParentPageID)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)

	// godotenv never overrides a variable that is already set, even to ""
	require.NoError(t, os.Unsetenv("PAGESYNC_ROOT"))
	require.NoError(t, os.WriteFile(".env", []byte("PAGESYNC_ROOT=/from/dotenv\n"), 0o644))

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.Root)
}

func TestLoadInvalidFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("root = [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{name: "Defaults", mutate: func(*Config) {}},
		{name: "Missing root", mutate: func(c *Config) { c.Root = "" }, expectError: true},
		{name: "Nested image dir", mutate: func(c *Config) { c.ImageDir = "a/b" }, expectError: true},
		{name: "Relative base url", mutate: func(c *Config) { c.Source.BaseURL = "mspa/6" }, expectError: true},
		{name: "Notion without key", mutate: func(c *Config) { c.Notion = Notion{Enabled: true, ParentPageID: "p"} }, expectError: true},
		{name: "Notion configured", mutate: func(c *Config) { c.Notion = Notion{Enabled: true, APIKey: "k", ParentPageID: "p"} }},
		{name: "Unknown log format", mutate: func(c *Config) { c.Log.Format = "xml" }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
