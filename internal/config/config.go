package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the main structure mapping the entire application configuration.
// This struct uses mapstructure tags to map YAML/JSON keys to Go struct fields.
type Config struct {
	// Server configuration section containing HTTP server settings
	Server struct {
		Port      int    `mapstructure:"port"`       // HTTP server port (default: 8080)
		BaseURL   string `mapstructure:"base_url"`   // Base URL used by the CLI to print full short links
		StaticDir string `mapstructure:"static_dir"` // Directory the frontend assets are served from
	} `mapstructure:"server"`

	// Database configuration section for SQLite settings
	Database struct {
		Name           string `mapstructure:"name"`            // SQLite database file name
		TimeoutSeconds int    `mapstructure:"timeout_seconds"` // Per-call timeout applied to store operations
	} `mapstructure:"database"`

	// RateLimit configuration for the sliding-window limiter on the shorten endpoint
	RateLimit struct {
		Limit          int `mapstructure:"limit"`           // Max requests per client within the window
		WindowSeconds  int `mapstructure:"window_seconds"`  // Trailing window length in seconds
		MaxClients     int `mapstructure:"max_clients"`     // Cap on distinct tracked client identifiers
		CleanupMinutes int `mapstructure:"cleanup_minutes"` // Janitor interval for dropping idle client windows
	} `mapstructure:"ratelimit"`

	// Shortener configuration for code generation
	Shortener struct {
		CodeLength  int `mapstructure:"code_length"`  // Length of generated short codes
		MaxAttempts int `mapstructure:"max_attempts"` // Retry bound when a generated code collides
	} `mapstructure:"shortener"`

	// Analytics configuration for asynchronous click counting
	Analytics struct {
		BufferSize  int `mapstructure:"buffer_size"`  // Size of the click event channel buffer
		WorkerCount int `mapstructure:"worker_count"` // Number of worker goroutines processing clicks
	} `mapstructure:"analytics"`

	// Monitor configuration for URL health checking
	Monitor struct {
		IntervalMinutes int `mapstructure:"interval_minutes"` // Interval in minutes between URL health checks
	} `mapstructure:"monitor"`
}

// StoreTimeout returns the per-call timeout for link store operations.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.Database.TimeoutSeconds) * time.Second
}

// RateWindow returns the trailing rate-limit window as a duration.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

// RateCleanupInterval returns how often the limiter janitor drops idle clients.
func (c *Config) RateCleanupInterval() time.Duration {
	return time.Duration(c.RateLimit.CleanupMinutes) * time.Minute
}

// LoadConfig loads the application configuration using Viper.
// It supports environment variable overrides and YAML configuration files.
// Returns a populated Config struct or an error if configuration loading fails.
func LoadConfig() (*Config, error) {
	// Enable automatic environment variable binding
	// This allows config values to be overridden via environment variables
	viper.AutomaticEnv()

	// Replace dots with underscores in environment variable names
	// e.g., "server.port" becomes "SERVER_PORT"
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Specify the directory path where Viper should look for config files
	viper.AddConfigPath("./configs")

	// Specify the name of the config file (without the extension)
	viper.SetConfigName("config")

	// Specify the type/format of the config file (YAML in this case)
	viper.SetConfigType("yaml")

	// Set default values for all configuration options
	// These will be used if no config file is found or if specific keys are missing
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.base_url", "http://localhost:8080")
	viper.SetDefault("server.static_dir", "./public")
	viper.SetDefault("database.name", "url_shortener.db")
	viper.SetDefault("database.timeout_seconds", 5)
	viper.SetDefault("ratelimit.limit", 10)
	viper.SetDefault("ratelimit.window_seconds", 60)
	viper.SetDefault("ratelimit.max_clients", 10000)
	viper.SetDefault("ratelimit.cleanup_minutes", 2)
	viper.SetDefault("shortener.code_length", 6)
	viper.SetDefault("shortener.max_attempts", 5)
	viper.SetDefault("analytics.buffer_size", 1000)
	viper.SetDefault("analytics.worker_count", 5)
	viper.SetDefault("monitor.interval_minutes", 5)

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		// Check if the error is specifically "config file not found"
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// This is not a fatal error - we'll use default values
			log.Println("Config file not found, using default values")
		} else {
			// Any other error (permissions, malformed YAML, etc.) is fatal
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal the loaded configuration into our Config structure
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	log.Printf("Configuration loaded: Server Port=%d, DB Name=%s, Rate Limit=%d/%ds",
		cfg.Server.Port, cfg.Database.Name, cfg.RateLimit.Limit, cfg.RateLimit.WindowSeconds)

	return &cfg, nil
}
