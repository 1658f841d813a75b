package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names
const (
	EnvHost            = "YT_DOWNLOADER_HOST"
	EnvPort            = "YT_DOWNLOADER_PORT"
	EnvHistorySize     = "YT_DOWNLOADER_HISTORY_SIZE"
	EnvFFmpegPath      = "YT_DOWNLOADER_FFMPEG"
	EnvLogLevel        = "YT_DOWNLOADER_LOG_LEVEL"
	EnvShutdownTimeout = "YT_DOWNLOADER_SHUTDOWN_TIMEOUT"
)

// Default values
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 4545
	DefaultHistorySize     = 20
	DefaultFFmpegPath      = "ffmpeg"
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds the service configuration
type Config struct {
	Host            string
	Port            int
	HistorySize     int           // Number of finished jobs kept in memory
	FFmpegPath      string        // ffmpeg binary used for mp3 extraction
	LogLevel        string        // golog level: debug, info, warn, error
	ShutdownTimeout time.Duration // How long to wait for the active job on shutdown
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Host:            DefaultHost,
		Port:            DefaultPort,
		HistorySize:     DefaultHistorySize,
		FFmpegPath:      DefaultFFmpegPath,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Load reads .env files (if any) and then the environment.
// Missing .env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := Default()

	if v := getenv(EnvHost); v != "" {
		cfg.Host = v
	}

	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: %q", EnvPort, v)
		}
		cfg.Port = port
	}

	if v := getenv(EnvHistorySize); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 {
			return nil, fmt.Errorf("invalid %s: %q", EnvHistorySize, v)
		}
		cfg.HistorySize = size
	}

	if v := getenv(EnvFFmpegPath); v != "" {
		cfg.FFmpegPath = v
	}

	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}

	if v := getenv(EnvShutdownTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid %s: %q", EnvShutdownTimeout, v)
		}
		cfg.ShutdownTimeout = d
	}

	return cfg, nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
