package config

const (
	defaultConfigPath         = "~/.config/animeimporter/config.toml"
	defaultDataDir            = "~/.local/share/animeimporter"
	defaultAssetDir           = "~/.local/share/animeimporter/assets"
	defaultLogDir             = "~/.local/share/animeimporter/logs"
	defaultAPIBind            = "127.0.0.1:7488"
	defaultJikanBaseURL       = "https://api.jikan.moe/v4"
	defaultJikanTimeout       = 10
	defaultJikanUserAgent     = "animeimporter/dev"
	defaultAssetMaxBytes      = 8 << 20
	defaultAssetMaxDimension  = 1000
	defaultAssetMaxPixels     = 40_000_000
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultTracingServiceName = "animeimporter"
)

// DefaultJikanBaseURL is the public Jikan v4 endpoint used when nothing else is configured.
const DefaultJikanBaseURL = defaultJikanBaseURL

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			AssetDir: defaultAssetDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Jikan: Jikan{
			BaseURL:        defaultJikanBaseURL,
			TimeoutSeconds: defaultJikanTimeout,
			UserAgent:      defaultJikanUserAgent,
		},
		Assets: Assets{
			Enabled:      true,
			MaxBytes:     defaultAssetMaxBytes,
			MaxDimension: defaultAssetMaxDimension,
			MaxPixels:    defaultAssetMaxPixels,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Tracing: Tracing{
			ServiceName: defaultTracingServiceName,
		},
	}
}
