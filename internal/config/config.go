// Package config loads application configuration from file and environment.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Compare  CompareConfig  `yaml:"compare" mapstructure:"compare"`
	Semantic SemanticConfig `yaml:"semantic" mapstructure:"semantic"`
	OCR      OCRConfig      `yaml:"ocr" mapstructure:"ocr"`
	Navigate NavigateConfig `yaml:"navigate" mapstructure:"navigate"`
}

// StoreConfig configures the evidence store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the status API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// PipelineConfig configures record and field concurrency.
type PipelineConfig struct {
	MaxConcurrentRecords int `yaml:"max_concurrent_records" mapstructure:"max_concurrent_records"`
	MaxConcurrentFields  int `yaml:"max_concurrent_fields" mapstructure:"max_concurrent_fields"`
}

// ExtractConfig configures extraction channel selection.
type ExtractConfig struct {
	// ConfidenceThreshold is the structural confidence below which a hybrid
	// field escalates to the recognition channel.
	ConfidenceThreshold float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
}

// CompareConfig configures the semantic comparator.
type CompareConfig struct {
	Backend             string        `yaml:"backend" mapstructure:"backend"` // http | claude
	MaxAttempts         int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff      time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	RequestTimeout      time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	ProbeTimeout        time.Duration `yaml:"probe_timeout" mapstructure:"probe_timeout"`
	TextSimilarity      float64       `yaml:"text_similarity" mapstructure:"text_similarity"`
	NameTokenSimilarity float64       `yaml:"name_token_similarity" mapstructure:"name_token_similarity"`
	NameCoverage        float64       `yaml:"name_coverage" mapstructure:"name_coverage"`
	CurrencyTolerance   float64       `yaml:"currency_tolerance" mapstructure:"currency_tolerance"`
}

// SemanticConfig holds validation service settings.
type SemanticConfig struct {
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey     string  `yaml:"api_key" mapstructure:"api_key"`
	Model      string  `yaml:"model" mapstructure:"model"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst      int     `yaml:"burst" mapstructure:"burst"`
}

// OCRConfig holds recognition service settings.
type OCRConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// NavigateConfig configures page navigation.
type NavigateConfig struct {
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent string        `yaml:"user_agent" mapstructure:"user_agent"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VALIDATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "validate.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("pipeline.max_concurrent_records", 4)
	v.SetDefault("pipeline.max_concurrent_fields", 3)
	v.SetDefault("extract.confidence_threshold", 0.6)
	v.SetDefault("compare.backend", "http")
	v.SetDefault("compare.max_attempts", 3)
	v.SetDefault("compare.initial_backoff", "500ms")
	v.SetDefault("compare.request_timeout", "30s")
	v.SetDefault("compare.probe_timeout", "3s")
	v.SetDefault("compare.text_similarity", 0.85)
	v.SetDefault("compare.name_token_similarity", 0.8)
	v.SetDefault("compare.name_coverage", 0.6)
	v.SetDefault("compare.currency_tolerance", 0.01)
	v.SetDefault("semantic.base_url", "http://localhost:8000")
	v.SetDefault("semantic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("semantic.rate_per_sec", 5)
	v.SetDefault("semantic.burst", 5)
	v.SetDefault("ocr.base_url", "http://localhost:5000")
	v.SetDefault("navigate.timeout", "30s")
	v.SetDefault("navigate.user_agent", "validate-cli/1.0")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
