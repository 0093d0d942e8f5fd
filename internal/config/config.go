package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/xxxsen/common/logger"

	"github.com/ragstack/ragcore/internal/ai"
	"github.com/ragstack/ragcore/internal/chunker"
	"github.com/ragstack/ragcore/internal/contextproc"
	"github.com/ragstack/ragcore/internal/db"
	"github.com/ragstack/ragcore/internal/retrieval"
)

type AIConfig struct {
	Provider       string      `json:"provider"`
	Model          string      `json:"model"`
	Dimension      int         `json:"dimension"`
	MaxTokens      int         `json:"max_tokens"`
	TimeoutSeconds int         `json:"timeout_seconds"`
	CacheSize      int         `json:"cache_size"`
	CacheTTLHours  int         `json:"cache_ttl_hours"`
	RateLimit      RateLimit   `json:"rate_limit"`
	Data           interface{} `json:"data"`
}

type RateLimit struct {
	RequestsPerMinute int `json:"requests_per_minute"`
	TokensPerMinute   int `json:"tokens_per_minute"`
	MaxInFlight       int `json:"max_in_flight"`
}

func (c AIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type Config struct {
	DB        db.Config          `json:"db"`
	AI        AIConfig           `json:"ai"`
	Chunker   chunker.Config     `json:"chunker"`
	Retrieval retrieval.Config   `json:"retrieval"`
	Context   contextproc.Config `json:"context"`
	LogConfig logger.LogConfig   `json:"log_config"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	cfg := Config{
		Chunker:   chunker.DefaultConfig(),
		Retrieval: retrieval.DefaultConfig(),
		Context:   contextproc.DefaultConfig(),
	}
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DB.DSN == "" {
		if cfg.DB.Host == "" {
			return nil, fmt.Errorf("db.host is required")
		}
		if cfg.DB.DBName == "" {
			return nil, fmt.Errorf("db.db_name is required")
		}
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" {
		return nil, fmt.Errorf("ai.model is required")
	}
	if cfg.AI.Dimension == 0 {
		cfg.AI.Dimension = 768
	}
	if cfg.AI.MaxTokens == 0 {
		cfg.AI.MaxTokens = ai.DefaultMaxEmbedTokens
	}
	if cfg.AI.CacheSize == 0 {
		cfg.AI.CacheSize = 4096
	}
	if cfg.AI.CacheTTLHours == 0 {
		cfg.AI.CacheTTLHours = 24
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	return &cfg, nil
}
