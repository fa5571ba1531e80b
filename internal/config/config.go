package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Insight  InsightConfig  `yaml:"insight" envconfig:"INSIGHT"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/gamepulse.log"`
}

// AnalysisConfig controls the data pipeline.
type AnalysisConfig struct {
	MappingFile      string  `yaml:"mapping_file" envconfig:"MAPPING_FILE"`
	UploadDir        string  `yaml:"upload_dir" envconfig:"UPLOAD_DIR" default:"data/uploads"`
	MaxUploadBytes   int64   `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"52428800"`
	AnomalyThreshold float64 `yaml:"anomaly_threshold" envconfig:"ANOMALY_THRESHOLD" default:"2.0" validate:"gt=0"`
}

// InsightConfig configures the external text-insight service client.
type InsightConfig struct {
	APIKey    string        `yaml:"api_key" envconfig:"API_KEY"`
	BaseURL   string        `yaml:"base_url" envconfig:"BASE_URL" default:"https://api.perplexity.ai/chat/completions" validate:"url"`
	Model     string        `yaml:"model" envconfig:"MODEL" default:"llama-3.1-sonar-small-128k-online"`
	Timeout   time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s"`
	MaxTokens int           `yaml:"max_tokens" envconfig:"MAX_TOKENS" default:"1000" validate:"gt=0"`
	RPS       float64       `yaml:"rps" envconfig:"RPS" default:"1"`
	Burst     int           `yaml:"burst" envconfig:"BURST" default:"2"`
}

// SecurityConfig contains request-limiting configuration.
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// Load loads configuration from environment variables, overlaying values
// from the optional YAML config file for fields the environment left
// unset. Environment takes precedence.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("GAMEPULSE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = merge(*fileCfg, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration against its struct-tag constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func configFilePath() string {
	if path := os.Getenv("GAMEPULSE_CONFIG"); path != "" {
		return path
	}
	return "config/gamepulse.yaml"
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// merge overlays env config onto file config; env wins wherever it set a
// non-zero value.
func merge(fileCfg, envCfg Config) Config {
	out := envCfg

	if out.Server.Port == 0 {
		out.Server.Port = fileCfg.Server.Port
	}
	if out.Server.ReadTimeout == 0 {
		out.Server.ReadTimeout = fileCfg.Server.ReadTimeout
	}
	if out.Server.WriteTimeout == 0 {
		out.Server.WriteTimeout = fileCfg.Server.WriteTimeout
	}
	if out.Server.IdleTimeout == 0 {
		out.Server.IdleTimeout = fileCfg.Server.IdleTimeout
	}
	if out.Server.ShutdownTimeout == 0 {
		out.Server.ShutdownTimeout = fileCfg.Server.ShutdownTimeout
	}
	if out.Logging.Level == "" {
		out.Logging.Level = fileCfg.Logging.Level
	}
	if out.Logging.Output == "" {
		out.Logging.Output = fileCfg.Logging.Output
	}
	if out.Logging.FilePath == "" {
		out.Logging.FilePath = fileCfg.Logging.FilePath
	}
	if out.Analysis.MappingFile == "" {
		out.Analysis.MappingFile = fileCfg.Analysis.MappingFile
	}
	if out.Analysis.UploadDir == "" {
		out.Analysis.UploadDir = fileCfg.Analysis.UploadDir
	}
	if out.Analysis.MaxUploadBytes == 0 {
		out.Analysis.MaxUploadBytes = fileCfg.Analysis.MaxUploadBytes
	}
	if out.Analysis.AnomalyThreshold == 0 {
		out.Analysis.AnomalyThreshold = fileCfg.Analysis.AnomalyThreshold
	}
	if out.Insight.APIKey == "" {
		out.Insight.APIKey = fileCfg.Insight.APIKey
	}
	if out.Insight.BaseURL == "" {
		out.Insight.BaseURL = fileCfg.Insight.BaseURL
	}
	if out.Insight.Model == "" {
		out.Insight.Model = fileCfg.Insight.Model
	}
	if out.Insight.Timeout == 0 {
		out.Insight.Timeout = fileCfg.Insight.Timeout
	}
	if out.Insight.MaxTokens == 0 {
		out.Insight.MaxTokens = fileCfg.Insight.MaxTokens
	}

	return out
}
