// Package config loads CLI configuration from the environment and an
// optional YAML profile file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/paasim/fmi-cli/pkg/fmi"
)

// Config carries the settings of one CLI invocation.
type Config struct {
	// Service endpoints.
	BaseURL string
	MetaURL string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	LogLevel slog.Level
	// Env selects log output formatting; anything but "prod" is treated
	// as development.
	Env string

	// Profile defaults applied when flags leave them unset.
	Profile Profile
}

// Profile is the optional YAML profile: per-user defaults for the query
// flags.
type Profile struct {
	FMISID     int      `yaml:"fmisid"`
	Resolution string   `yaml:"resolution"`
	Parameters []string `yaml:"parameters"`
}

// ResolutionDuration parses the profile resolution, defaulting to hourly.
func (p Profile) ResolutionDuration() (time.Duration, error) {
	if p.Resolution == "" {
		return time.Hour, nil
	}
	d, err := time.ParseDuration(p.Resolution)
	if err != nil {
		return 0, fmt.Errorf("invalid profile resolution: %w", err)
	}
	return d, nil
}

// Load reads configuration from the environment with sensible defaults.
// A .env file is merged in when present; FMI_CLI_PROFILE may point at a
// YAML profile file.
func Load() (*Config, error) {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	cfg := &Config{
		BaseURL: getenvDefault("FMI_CLI_BASE_URL", fmi.DefaultBaseURL),
		MetaURL: getenvDefault("FMI_CLI_META_URL", fmi.DefaultMetaURL),
		Env:     getenvDefault("FMI_CLI_ENV", "dev"),
	}

	timeoutSecs, err := getenvInt("FMI_CLI_TIMEOUT", 120)
	if err != nil {
		return nil, err
	}
	cfg.Timeout = time.Duration(timeoutSecs) * time.Second

	if err := cfg.LogLevel.UnmarshalText([]byte(getenvDefault("FMI_CLI_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid FMI_CLI_LOG_LEVEL: %w", err)
	}

	if path := os.Getenv("FMI_CLI_PROFILE"); path != "" {
		profile, err := loadProfile(path)
		if err != nil {
			return nil, err
		}
		cfg.Profile = *profile
	}
	return cfg, nil
}

func loadProfile(path string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var profile Profile
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return &profile, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
