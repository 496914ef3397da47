// Copyright 2025 Kisan Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads and validates the Kisan Assistant configuration
// from a YAML file with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	// ErrMissingRequiredField is returned when a required configuration field is missing
	ErrMissingRequiredField = errors.New("missing required configuration field")
	// ErrInvalidConfigValue is returned when a configuration value is invalid
	ErrInvalidConfigValue = errors.New("invalid configuration value")
)

// Config represents the complete application configuration
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Weather WeatherConfig `mapstructure:"weather"`
	Market  MarketConfig  `mapstructure:"market"`
	News    NewsConfig    `mapstructure:"news"`
	Session SessionConfig `mapstructure:"session"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// AppConfig contains application identity settings
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// LLMConfig contains the LLM API configuration
type LLMConfig struct {
	APIKey      string  `mapstructure:"apikey"`
	Endpoint    string  `mapstructure:"endpoint"`
	Model       string  `mapstructure:"model"`
	VisionModel string  `mapstructure:"vision_model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// WeatherConfig contains the OpenWeather client configuration
type WeatherConfig struct {
	APIKey          string `mapstructure:"apikey"`
	BaseURL         string `mapstructure:"base_url"`
	CacheTTLMinutes int    `mapstructure:"cache_ttl_minutes"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
}

// MarketConfig contains the data.gov.in market price client configuration
type MarketConfig struct {
	APIKey          string `mapstructure:"apikey"`
	BaseURL         string `mapstructure:"base_url"`
	ResourceID      string `mapstructure:"resource_id"`
	CacheTTLMinutes int    `mapstructure:"cache_ttl_minutes"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	RecordLimit     int    `mapstructure:"record_limit"`
}

// NewsConfig contains the news and advisory client configuration
type NewsConfig struct {
	CacheTTLMinutes int `mapstructure:"cache_ttl_minutes"`
}

// SessionConfig contains conversation memory settings
type SessionConfig struct {
	MaxTurns     int `mapstructure:"max_turns"`
	ContextTurns int `mapstructure:"context_turns"`
	MaxSessions  int `mapstructure:"max_sessions"`
}

// CacheConfig contains the on-disk API cache settings
type CacheConfig struct {
	DBPath     string `mapstructure:"db_path"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed for field '%s': %s", e.Field, e.Message)
}

// LoadOptions contains options for configuration loading
type LoadOptions struct {
	ConfigPath       string
	Environment      string
	ValidateRequired bool
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over config file values.
func Load(configPath string) (*Config, error) {
	return LoadWithOptions(LoadOptions{
		ConfigPath:       configPath,
		Environment:      getEnvironment(),
		ValidateRequired: true,
	})
}

// LoadWithOptions loads configuration with additional options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if err := setConfigFile(v, opts.ConfigPath); err != nil {
		return nil, fmt.Errorf("failed to set config file: %w", err)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("KISAN")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not an error if env vars are set
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	setEnvironmentMappings(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if opts.ValidateRequired {
		if err := validateConfig(&config); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Application defaults
	v.SetDefault("app.name", "KisanGPT")
	v.SetDefault("app.version", "1.0.0")

	// LLM defaults
	v.SetDefault("llm.endpoint", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.vision_model", "gpt-4o")
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.temperature", 0.3)

	// Weather defaults
	v.SetDefault("weather.base_url", "https://api.openweathermap.org")
	v.SetDefault("weather.cache_ttl_minutes", 30)
	v.SetDefault("weather.timeout_seconds", 10)

	// Market defaults
	v.SetDefault("market.base_url", "https://api.data.gov.in")
	v.SetDefault("market.resource_id", "9ef84268-d588-465a-a308-a864a43d0070")
	v.SetDefault("market.cache_ttl_minutes", 60)
	v.SetDefault("market.timeout_seconds", 10)
	v.SetDefault("market.record_limit", 10)

	// News defaults
	v.SetDefault("news.cache_ttl_minutes", 120)

	// Session defaults
	v.SetDefault("session.max_turns", 10)
	v.SetDefault("session.context_turns", 6)
	v.SetDefault("session.max_sessions", 1000)

	// Cache defaults
	v.SetDefault("cache.db_path", "./data/cache.db")
	v.SetDefault("cache.ttl_minutes", 60)

	// Server defaults
	v.SetDefault("server.port", "8000")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// setConfigFile sets the configuration file path with fallback logic
func setConfigFile(v *viper.Viper, configPath string) error {
	// Check for CONFIG_PATH environment variable
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return fmt.Errorf("config file specified by CONFIG_PATH does not exist: %s", envPath)
		}
		v.SetConfigFile(envPath)
		return nil
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("config file does not exist: %s", configPath)
		}
		v.SetConfigFile(configPath)
		return nil
	}

	// Default lookup locations; a missing file is tolerated since every
	// value has a default or an environment override.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	return nil
}

// setEnvironmentMappings sets explicit environment variable mappings
// for well-known variable names that predate the KISAN_ prefix scheme.
func setEnvironmentMappings(v *viper.Viper) {
	envMappings := map[string]string{
		"OPENAI_API_KEY":      "llm.apikey",
		"OPENAI_ENDPOINT":     "llm.endpoint",
		"OPENWEATHER_API_KEY": "weather.apikey",
		"DATAGOV_API_KEY":     "market.apikey",
		"DATAGOV_BASE_URL":    "market.base_url",
		"CACHE_DB_PATH":       "cache.db_path",
		"PORT":                "server.port",
		"LOG_LEVEL":           "logging.level",
		"LOG_FORMAT":          "logging.format",
		"LOG_OUTPUT":          "logging.output",
	}

	for envVar, configKey := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			v.Set(configKey, value)
		}
	}
}

// validateConfig validates the configuration for required fields and valid
// values. The LLM API key is deliberately not required at startup: its
// absence is reported per-request as a credential error instead.
func validateConfig(config *Config) error {
	var errs []ValidationError

	if config.Weather.BaseURL == "" {
		errs = append(errs, ValidationError{
			Field:   "weather.base_url",
			Message: "weather API base URL is required",
		})
	}

	if config.Weather.TimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{
			Field:   "weather.timeout_seconds",
			Message: "timeout_seconds must be greater than 0",
		})
	}

	if config.Market.BaseURL == "" {
		errs = append(errs, ValidationError{
			Field:   "market.base_url",
			Message: "market data base URL is required",
		})
	}

	if config.Market.ResourceID == "" {
		errs = append(errs, ValidationError{
			Field:   "market.resource_id",
			Message: "market data resource ID is required",
		})
	}

	if config.Market.TimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{
			Field:   "market.timeout_seconds",
			Message: "timeout_seconds must be greater than 0",
		})
	}

	if config.Market.RecordLimit <= 0 {
		errs = append(errs, ValidationError{
			Field:   "market.record_limit",
			Message: "record_limit must be greater than 0",
		})
	}

	if config.Session.MaxTurns <= 0 {
		errs = append(errs, ValidationError{
			Field:   "session.max_turns",
			Message: "max_turns must be greater than 0",
		})
	}

	if config.Session.ContextTurns <= 0 || config.Session.ContextTurns > config.Session.MaxTurns {
		errs = append(errs, ValidationError{
			Field:   "session.context_turns",
			Message: "context_turns must be between 1 and max_turns",
		})
	}

	if config.LLM.MaxTokens <= 0 {
		errs = append(errs, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be greater than 0",
		})
	}

	if config.LLM.Temperature < 0 || config.LLM.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, config.Logging.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("log level must be one of: %s", strings.Join(validLogLevels, ", ")),
		})
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, config.Logging.Format) {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("log format must be one of: %s", strings.Join(validLogFormats, ", ")),
		})
	}

	if len(errs) > 0 {
		var errorMessages []string
		for _, err := range errs {
			errorMessages = append(errorMessages, err.Error())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errorMessages, "\n"))
	}

	return nil
}

// MaskSensitiveValues returns a copy of the config with sensitive values masked
func (c *Config) MaskSensitiveValues() *Config {
	masked := *c

	if masked.LLM.APIKey != "" {
		masked.LLM.APIKey = maskValue(masked.LLM.APIKey)
	}
	if masked.Weather.APIKey != "" {
		masked.Weather.APIKey = maskValue(masked.Weather.APIKey)
	}
	if masked.Market.APIKey != "" {
		masked.Market.APIKey = maskValue(masked.Market.APIKey)
	}

	return &masked
}

// maskValue masks sensitive values, showing only the first 8 characters
func maskValue(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:8] + strings.Repeat("*", len(value)-8)
}

// contains checks if a slice contains a specific string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// getEnvironment returns the current environment (development, production, etc.)
func getEnvironment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "development"
}

// WatchConfig enables configuration hot-reloading for development
func WatchConfig(configPath string, callback func(*Config)) error {
	v := viper.New()

	if err := setConfigFile(v, configPath); err != nil {
		return err
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Printf("Config file changed: %s\n", e.Name)

		config, err := LoadWithOptions(LoadOptions{
			ConfigPath:       configPath,
			Environment:      getEnvironment(),
			ValidateRequired: true,
		})
		if err != nil {
			fmt.Printf("Failed to reload config: %v\n", err)
			return
		}

		callback(config)
	})

	return nil
}
