package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	Inference   InferenceConfig           `json:"inference"`
}

type BasicConfig struct {
	ServerAddress     string `json:"server_address"`
	MinWorkers        int    `json:"min_workers"`
	MaxWorkers        int    `json:"max_workers"`
	WorkerIdleTimeout int    `json:"worker_idle_timeout"` // minutes
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	// StoryTTL is the story cache lifetime in minutes.
	StoryTTL int `json:"story_ttl"`
}

type InferenceConfig struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	Persona string `json:"persona"`
}

// Load reads configuration from the provided path (defaults to config.json).
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Inference.BaseURL == "" {
		return nil, fmt.Errorf("inference base_url must be configured")
	}
	if cfg.Inference.Persona == "" {
		cfg.Inference.Persona = "music"
	}
	if key := os.Getenv("MUSICBOT_API_KEY"); key != "" {
		cfg.Inference.APIKey = key
	}

	// sqlite DSNs are resolved against the config directory
	if db, ok := cfg.Databases["sqlite3"]; ok && db.DSN != "" && db.DSN != ":memory:" && !filepath.IsAbs(db.DSN) {
		db.DSN = filepath.Join(filepath.Dir(absPath), db.DSN)
		cfg.Databases["sqlite3"] = db
	}

	return &cfg, nil
}
