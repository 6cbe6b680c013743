package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds tracker configuration. It is built once in main and passed
// into each component; no package-level mutable state.
type Config struct {
	ArrivalsURL   string
	StateFile     string
	DashboardFile string

	NtfyServer    string
	NtfyTopic     string
	NotifyTimeout time.Duration

	RetentionWindow time.Duration
	DashboardLimit  int

	Timeout   time.Duration
	MinDelay  time.Duration
	MaxDelay  time.Duration
	UserAgent string

	Verbose     bool
	MetricsAddr string
}

// DefaultConfig returns the production defaults for the tracked site.
func DefaultConfig() *Config {
	return &Config{
		ArrivalsURL:     "https://www.watchfinder.co.uk/new-arrivals",
		StateFile:       "data/known_watches.json",
		DashboardFile:   "docs/index.html",
		NtfyServer:      "https://ntfy.sh",
		NtfyTopic:       "",
		NotifyTimeout:   10 * time.Second,
		RetentionWindow: 30 * 24 * time.Hour,
		DashboardLimit:  50,
		Timeout:         30 * time.Second,
		MinDelay:        1 * time.Second,
		MaxDelay:        3 * time.Second,
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Verbose:         false,
		MetricsAddr:     "",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.ArrivalsURL == "" {
		return fmt.Errorf("arrivals URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.ArrivalsURL)
	if err != nil {
		return fmt.Errorf("invalid arrivals URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("arrivals URL must include a host")
	}

	if c.StateFile == "" {
		return fmt.Errorf("state file cannot be empty")
	}
	if c.DashboardFile == "" {
		return fmt.Errorf("dashboard file cannot be empty")
	}
	if c.NtfyServer == "" {
		return fmt.Errorf("ntfy server cannot be empty")
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("notify timeout must be positive")
	}
	if c.RetentionWindow <= 0 {
		return fmt.Errorf("retention window must be positive")
	}
	if c.DashboardLimit <= 0 {
		return fmt.Errorf("dashboard limit must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MinDelay < 0 {
		return fmt.Errorf("min delay cannot be negative")
	}
	if c.MaxDelay < c.MinDelay {
		return fmt.Errorf("max delay (%s) cannot be less than min delay (%s)", c.MaxDelay, c.MinDelay)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}

// Origin returns the scheme://host prefix of the arrivals URL, used to
// absolutize relative listing and image URLs.
func (c *Config) Origin() (string, error) {
	parsed, err := url.Parse(c.ArrivalsURL)
	if err != nil {
		return "", fmt.Errorf("parse arrivals URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("arrivals URL must be absolute")
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}

// LoadDotEnv loads a .env file when present; system environment wins
// otherwise.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using system environment")
	}
}

// EnvString returns an environment value and whether it was set.
func EnvString(key string) (string, bool) {
	value := os.Getenv(key)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt returns an integer environment value, whether it was set, and a
// parse error when the value is not a valid integer.
func EnvInt(key string) (int, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, true, nil
}
