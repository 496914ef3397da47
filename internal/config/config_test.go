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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
app:
  name: "KisanGPT"
  version: "1.0.0"
llm:
  apikey: "sk-test-key"  # pragma: allowlist secret
  endpoint: "https://api.openai.com/v1"
  model: "gpt-4o-mini"
  max_tokens: 2000
  temperature: 0.3
weather:
  apikey: "ow-test-key"  # pragma: allowlist secret
  base_url: "https://api.openweathermap.org"
  cache_ttl_minutes: 30
  timeout_seconds: 10
market:
  apikey: "dg-test-key"  # pragma: allowlist secret
  base_url: "https://api.data.gov.in"
  resource_id: "9ef84268-d588-465a-a308-a864a43d0070"
  cache_ttl_minutes: 60
  timeout_seconds: 10
  record_limit: 10
session:
  max_turns: 10
  context_turns: 6
  max_sessions: 1000
cache:
  db_path: "./test_cache.db"
  ttl_minutes: 60
server:
  port: "8000"
logging:
  level: "debug"
  format: "json"
  output: "stdout"
`

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.LLM.APIKey != "sk-test-key" {
		t.Errorf("Expected LLM API key 'sk-test-key', got '%s'", config.LLM.APIKey)
	}

	if config.Weather.CacheTTLMinutes != 30 {
		t.Errorf("Expected weather cache_ttl_minutes 30, got %d", config.Weather.CacheTTLMinutes)
	}

	if config.Market.ResourceID != "9ef84268-d588-465a-a308-a864a43d0070" {
		t.Errorf("Expected market resource_id '9ef84268-d588-465a-a308-a864a43d0070', got '%s'", config.Market.ResourceID)
	}

	if config.Session.MaxTurns != 10 {
		t.Errorf("Expected session max_turns 10, got %d", config.Session.MaxTurns)
	}

	if config.LLM.Temperature != 0.3 {
		t.Errorf("Expected llm temperature 0.3, got %f", config.LLM.Temperature)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Minimal config; everything else should come from defaults.
	configContent := `
app:
  name: "KisanGPT"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Market.ResourceID == "" {
		t.Error("Expected default market resource_id, got empty string")
	}

	if config.Weather.BaseURL != "https://api.openweathermap.org" {
		t.Errorf("Expected default weather base_url, got '%s'", config.Weather.BaseURL)
	}

	if config.Session.MaxTurns != 10 {
		t.Errorf("Expected default session max_turns 10, got %d", config.Session.MaxTurns)
	}

	if config.News.CacheTTLMinutes != 120 {
		t.Errorf("Expected default news cache_ttl_minutes 120, got %d", config.News.CacheTTLMinutes)
	}

	if config.Logging.Level != "info" {
		t.Errorf("Expected default logging level 'info', got '%s'", config.Logging.Level)
	}
}

func TestEnvironmentVariableOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
llm:
  apikey: "file-key"
server:
  port: "8000"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "warn")

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.LLM.APIKey != "env-key" {
		t.Errorf("Expected env var to override file value, got '%s'", config.LLM.APIKey)
	}

	if config.Server.Port != "9000" {
		t.Errorf("Expected PORT override '9000', got '%s'", config.Server.Port)
	}

	if config.Logging.Level != "warn" {
		t.Errorf("Expected LOG_LEVEL override 'warn', got '%s'", config.Logging.Level)
	}
}

func TestValidateConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		wantSubstr string
	}{
		{
			name:       "negative max_tokens",
			mutate:     func(c *Config) { c.LLM.MaxTokens = -1 },
			wantSubstr: "max_tokens",
		},
		{
			name:       "temperature out of range",
			mutate:     func(c *Config) { c.LLM.Temperature = 3.5 },
			wantSubstr: "temperature",
		},
		{
			name:       "bad log level",
			mutate:     func(c *Config) { c.Logging.Level = "verbose" },
			wantSubstr: "log level",
		},
		{
			name:       "bad log format",
			mutate:     func(c *Config) { c.Logging.Format = "xml" },
			wantSubstr: "log format",
		},
		{
			name:       "context_turns above max_turns",
			mutate:     func(c *Config) { c.Session.ContextTurns = 20 },
			wantSubstr: "context_turns",
		},
		{
			name:       "missing market resource id",
			mutate:     func(c *Config) { c.Market.ResourceID = "" },
			wantSubstr: "resource_id",
		},
		{
			name:       "zero weather timeout",
			mutate:     func(c *Config) { c.Weather.TimeoutSeconds = 0 },
			wantSubstr: "timeout_seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validTestConfig()
			tt.mutate(config)

			err := validateConfig(config)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSubstr) {
				t.Errorf("Expected error mentioning '%s', got: %v", tt.wantSubstr, err)
			}
		})
	}
}

func TestValidateConfigAllowsMissingLLMKey(t *testing.T) {
	config := validTestConfig()
	config.LLM.APIKey = ""

	if err := validateConfig(config); err != nil {
		t.Errorf("Missing LLM key should not fail startup validation, got: %v", err)
	}
}

func TestMaskSensitiveValues(t *testing.T) {
	config := validTestConfig()
	config.LLM.APIKey = "sk-1234567890abcdef"
	config.Weather.APIKey = "short"

	masked := config.MaskSensitiveValues()

	if masked.LLM.APIKey != "sk-12345**********" {
		t.Errorf("Expected masked LLM key 'sk-12345**********', got '%s'", masked.LLM.APIKey)
	}

	if masked.Weather.APIKey != "*****" {
		t.Errorf("Expected fully masked short key, got '%s'", masked.Weather.APIKey)
	}

	// Original must be untouched
	if config.LLM.APIKey != "sk-1234567890abcdef" {
		t.Error("MaskSensitiveValues modified the original config")
	}
}

func validTestConfig() *Config {
	return &Config{
		App: AppConfig{Name: "KisanGPT", Version: "1.0.0"},
		LLM: LLMConfig{
			Endpoint:    "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			MaxTokens:   2000,
			Temperature: 0.3,
		},
		Weather: WeatherConfig{
			BaseURL:         "https://api.openweathermap.org",
			CacheTTLMinutes: 30,
			TimeoutSeconds:  10,
		},
		Market: MarketConfig{
			BaseURL:         "https://api.data.gov.in",
			ResourceID:      "9ef84268-d588-465a-a308-a864a43d0070",
			CacheTTLMinutes: 60,
			TimeoutSeconds:  10,
			RecordLimit:     10,
		},
		News:    NewsConfig{CacheTTLMinutes: 120},
		Session: SessionConfig{MaxTurns: 10, ContextTurns: 6, MaxSessions: 1000},
		Cache:   CacheConfig{DBPath: "./data/cache.db", TTLMinutes: 60},
		Server:  ServerConfig{Port: "8000"},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
	}
}
