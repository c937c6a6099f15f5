package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// TMDB catalog
	TMDBAPIKey string

	// Session
	SessionSecret string

	// Apple Sign-In
	AppleClientID     string
	AppleClientSecret string
	AppleRedirectURL  string
	AppleIssuer       string

	// Server
	ServerPort     string
	AllowedOrigins []string

	// Paths
	DatabaseFile string // $DATA_DIR/duowatch.db
	AvatarDir    string // $DATA_DIR/avatars

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Setup viper FIRST to load .env file
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = viper.ReadInConfig()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173")
	viper.SetDefault("APPLE_ISSUER", "https://appleid.apple.com")

	// NOW read DATA_DIR from viper (which has loaded .env file)
	dataDir := viper.GetString("DATA_DIR")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".config", "duowatch")
	} else {
		absPath, err := filepath.Abs(dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for DATA_DIR: %w", err)
		}
		dataDir = absPath
	}

	// Create data directories if they don't exist
	avatarDir := filepath.Join(dataDir, "avatars")
	for _, dir := range []string{dataDir, avatarDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	config := &Config{
		// TMDB
		TMDBAPIKey: viper.GetString("TMDB_API_KEY"),

		// Session
		SessionSecret: viper.GetString("SESSION_SECRET"),

		// Apple Sign-In
		AppleClientID:     viper.GetString("APPLE_CLIENT_ID"),
		AppleClientSecret: viper.GetString("APPLE_CLIENT_SECRET"),
		AppleRedirectURL:  viper.GetString("APPLE_REDIRECT_URL"),
		AppleIssuer:       viper.GetString("APPLE_ISSUER"),

		// Server
		ServerPort:     viper.GetString("SERVER_PORT"),
		AllowedOrigins: splitOrigins(viper.GetString("ALLOWED_ORIGINS")),

		// Paths
		DatabaseFile: filepath.Join(dataDir, "duowatch.db"),
		AvatarDir:    avatarDir,

		// Logging
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	// Validate required fields
	if config.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY is required")
	}
	if config.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if len(config.SessionSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}

	return config, nil
}

// AppleEnabled reports whether Apple Sign-In is configured
func (c *Config) AppleEnabled() bool {
	return c.AppleClientID != "" && c.AppleClientSecret != "" && c.AppleRedirectURL != ""
}

// splitOrigins parses a comma-separated origin list
func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
