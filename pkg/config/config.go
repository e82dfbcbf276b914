// Package config loads platform configuration from a JSON file with
// SWITCHBOARD_* environment variable overrides applied on top.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type LLMConfig struct {
	Provider string `json:"provider" env:"SWITCHBOARD_LLM_PROVIDER"`
	Model    string `json:"model" env:"SWITCHBOARD_LLM_MODEL"`
	APIKey   string `json:"api_key" env:"SWITCHBOARD_LLM_API_KEY"`
	BaseURL  string `json:"base_url" env:"SWITCHBOARD_LLM_BASE_URL"`
}

type StateConfig struct {
	// MaxSessions caps tracked sessions; 0 means unbounded.
	MaxSessions int `json:"max_sessions" env:"SWITCHBOARD_STATE_MAX_SESSIONS"`
}

type CRMConfig struct {
	APIKey            string `json:"api_key" env:"SWITCHBOARD_CRM_API_KEY"`
	BaseURL           string `json:"base_url" env:"SWITCHBOARD_CRM_BASE_URL"`
	RequestsPerMinute int    `json:"requests_per_minute" env:"SWITCHBOARD_CRM_REQUESTS_PER_MINUTE"`
}

type MemoryConfig struct {
	Enabled bool   `json:"enabled" env:"SWITCHBOARD_MEMORY_ENABLED"`
	DBPath  string `json:"db_path" env:"SWITCHBOARD_MEMORY_DB_PATH"`
}

type GatewayConfig struct {
	Host string `json:"host" env:"SWITCHBOARD_GATEWAY_HOST"`
	Port int    `json:"port" env:"SWITCHBOARD_GATEWAY_PORT"`
}

type LoggingConfig struct {
	Level string `json:"level" env:"SWITCHBOARD_LOG_LEVEL"`
	File  string `json:"file" env:"SWITCHBOARD_LOG_FILE"`
}

type Config struct {
	DataDir string        `json:"data_dir" env:"SWITCHBOARD_DATA_DIR"`
	LLM     LLMConfig     `json:"llm"`
	State   StateConfig   `json:"state"`
	CRM     CRMConfig     `json:"crm"`
	Memory  MemoryConfig  `json:"memory"`
	Gateway GatewayConfig `json:"gateway"`
	Logging LoggingConfig `json:"logging"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir: "data",
		LLM: LLMConfig{
			Provider: "anthropic",
		},
		State: StateConfig{
			MaxSessions: 0,
		},
		CRM: CRMConfig{
			RequestsPerMinute: 30,
		},
		Memory: MemoryConfig{
			Enabled: true,
			DBPath:  "data/memories.db",
		},
		Gateway: GatewayConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the file at path, falling back to defaults when it does
// not exist, then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes cfg to path, creating parent directories as needed.
func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// SessionsDir is where session transcripts are persisted.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.DataDir, "sessions")
}
