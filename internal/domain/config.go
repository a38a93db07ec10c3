package domain

import "time"

// Config represents the application configuration
type Config struct {
	Download DownloadConfig `mapstructure:"download"`
	Tools    ToolsConfig    `mapstructure:"tools"`
	Network  NetworkConfig  `mapstructure:"network"`
	History  HistoryConfig  `mapstructure:"history"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	DestDir     string        `mapstructure:"dest_dir"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	// KillGrace is how long a child gets after SIGTERM before SIGKILL.
	KillGrace time.Duration `mapstructure:"kill_grace"`
}

// ToolsConfig names the external collaborator binaries
type ToolsConfig struct {
	YTDLPBinary   string `mapstructure:"ytdlp_binary"`
	FFmpegBinary  string `mapstructure:"ffmpeg_binary"`
	FFprobeBinary string `mapstructure:"ffprobe_binary"`
}

// NetworkConfig contains anti-blocking options passed to the retrieval engine
type NetworkConfig struct {
	CookiesBrowser string `mapstructure:"cookies_browser"`
	LimitRate      string `mapstructure:"limit_rate"`
	AddUserAgent   bool   `mapstructure:"add_user_agent"`
	AndroidClient  bool   `mapstructure:"android_client"`
}

// HistoryConfig controls the optional run-history database
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Download: DownloadConfig{
			DestDir:     ".",
			MaxAttempts: 3,
			RetryDelay:  5 * time.Second,
			KillGrace:   3 * time.Second,
		},
		Tools: ToolsConfig{
			YTDLPBinary:   "yt-dlp",
			FFmpegBinary:  "ffmpeg",
			FFprobeBinary: "ffprobe",
		},
		Network: NetworkConfig{},
		History: HistoryConfig{
			Enabled:      false,
			DatabasePath: "$HOME/.ytavx/history.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
		},
	}
}
