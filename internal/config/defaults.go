package config

const (
	defaultBaseURL        = "http://www.mspaintadventures.com/6"
	defaultAssetBaseURL   = "http://www.mspaintadventures.com"
	defaultTimeoutSeconds = 30
	defaultUserAgent      = "pagesync/1.0"
	defaultImageDir       = "img"
	defaultLogLevel       = "info"
)

// Default returns a config populated with default values
func Default() *Config {
	return &Config{
		Root:     ".",
		ImageDir: defaultImageDir,
		Source: Source{
			BaseURL:        defaultBaseURL,
			AssetBaseURL:   defaultAssetBaseURL,
			TimeoutSeconds: defaultTimeoutSeconds,
			UserAgent:      defaultUserAgent,
		},
		Log: Log{
			Level:  defaultLogLevel,
			Format: "text",
		},
	}
}
