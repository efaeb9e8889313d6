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
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Adapters   AdaptersConfig   `yaml:"adapters" mapstructure:"adapters"`
	Thresholds ThresholdsConfig `yaml:"thresholds" mapstructure:"thresholds"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AdapterConfig holds per-adapter credentials, endpoint and limits.
type AdapterConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
	CostUSD     float64 `yaml:"cost_usd" mapstructure:"cost_usd"`
}

// Timeout returns the adapter call timeout as a duration.
func (a AdapterConfig) Timeout() time.Duration {
	if a.TimeoutSecs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(a.TimeoutSecs) * time.Second
}

// AdaptersConfig holds one entry per external service.
type AdaptersConfig struct {
	Places      AdapterConfig `yaml:"places" mapstructure:"places"`
	Serper      AdapterConfig `yaml:"serper" mapstructure:"serper"`
	Jina        AdapterConfig `yaml:"jina" mapstructure:"jina"`
	Firecrawl   AdapterConfig `yaml:"firecrawl" mapstructure:"firecrawl"`
	PDL         AdapterConfig `yaml:"pdl" mapstructure:"pdl"`
	EmailCheck  AdapterConfig `yaml:"emailcheck" mapstructure:"emailcheck"`
	CooldownSec int           `yaml:"quota_cooldown_secs" mapstructure:"quota_cooldown_secs"`
}

// ThresholdsConfig holds scoring and budget knobs.
type ThresholdsConfig struct {
	AcceptThreshold float64 `yaml:"accept_threshold" mapstructure:"accept_threshold"`
	ValidThreshold  float64 `yaml:"valid_threshold" mapstructure:"valid_threshold"`
	EarlyExitConf   float64 `yaml:"early_exit_confidence" mapstructure:"early_exit_confidence"`
	RowDeadlineSecs int     `yaml:"row_deadline_secs" mapstructure:"row_deadline_secs"`
	RowBudgetUSD    float64 `yaml:"row_budget_usd" mapstructure:"row_budget_usd"`
	MaxSteps        int     `yaml:"max_steps" mapstructure:"max_steps"`
	TopK            int     `yaml:"top_k" mapstructure:"top_k"`
}

// RowDeadline returns the holistic per-row deadline.
func (t ThresholdsConfig) RowDeadline() time.Duration {
	if t.RowDeadlineSecs <= 0 {
		return 45 * time.Second
	}
	return time.Duration(t.RowDeadlineSecs) * time.Second
}

// LLMConfig holds the judge/tool-selection model settings.
type LLMConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	MaxTokens   int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the LLM call timeout as a duration.
func (l LLMConfig) Timeout() time.Duration {
	if l.TimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(l.TimeoutSecs) * time.Second
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Concurrency      int     `yaml:"concurrency" mapstructure:"concurrency"`
	FailureThreshold float64 `yaml:"failure_threshold" mapstructure:"failure_threshold"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RESOLVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "resolver.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.concurrency", 10)
	v.SetDefault("batch.failure_threshold", 0.5)

	v.SetDefault("thresholds.accept_threshold", 70.0)
	v.SetDefault("thresholds.valid_threshold", 50.0)
	v.SetDefault("thresholds.early_exit_confidence", 80.0)
	v.SetDefault("thresholds.row_deadline_secs", 45)
	v.SetDefault("thresholds.row_budget_usd", 0.25)
	v.SetDefault("thresholds.max_steps", 5)
	v.SetDefault("thresholds.top_k", 5)

	v.SetDefault("adapters.quota_cooldown_secs", 60)
	v.SetDefault("adapters.places.enabled", true)
	v.SetDefault("adapters.places.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("adapters.places.timeout_secs", 10)
	v.SetDefault("adapters.places.rate_per_sec", 10)
	v.SetDefault("adapters.places.burst", 5)
	v.SetDefault("adapters.places.cost_usd", 0.017)
	v.SetDefault("adapters.serper.enabled", true)
	v.SetDefault("adapters.serper.base_url", "https://google.serper.dev")
	v.SetDefault("adapters.serper.timeout_secs", 10)
	v.SetDefault("adapters.serper.rate_per_sec", 10)
	v.SetDefault("adapters.serper.burst", 5)
	v.SetDefault("adapters.serper.cost_usd", 0.001)
	v.SetDefault("adapters.jina.enabled", true)
	v.SetDefault("adapters.jina.base_url", "https://r.jina.ai")
	v.SetDefault("adapters.jina.timeout_secs", 20)
	v.SetDefault("adapters.jina.rate_per_sec", 5)
	v.SetDefault("adapters.jina.burst", 2)
	v.SetDefault("adapters.jina.cost_usd", 0.002)
	v.SetDefault("adapters.firecrawl.enabled", true)
	v.SetDefault("adapters.firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("adapters.firecrawl.timeout_secs", 20)
	v.SetDefault("adapters.firecrawl.rate_per_sec", 2)
	v.SetDefault("adapters.firecrawl.burst", 2)
	v.SetDefault("adapters.firecrawl.cost_usd", 0.006)
	v.SetDefault("adapters.pdl.enabled", true)
	v.SetDefault("adapters.pdl.base_url", "https://api.peopledatalabs.com/v5")
	v.SetDefault("adapters.pdl.timeout_secs", 10)
	v.SetDefault("adapters.pdl.rate_per_sec", 5)
	v.SetDefault("adapters.pdl.burst", 2)
	v.SetDefault("adapters.pdl.cost_usd", 0.03)
	v.SetDefault("adapters.emailcheck.enabled", true)
	v.SetDefault("adapters.emailcheck.base_url", "https://api.emailable.com/v1")
	v.SetDefault("adapters.emailcheck.timeout_secs", 10)
	v.SetDefault("adapters.emailcheck.rate_per_sec", 10)
	v.SetDefault("adapters.emailcheck.burst", 5)
	v.SetDefault("adapters.emailcheck.cost_usd", 0.002)

	v.SetDefault("llm.model", "claude-haiku-4-5-20251001")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout_secs", 30)

	// Credentials come from the environment; defaults make the keys visible
	// to Unmarshal.
	for _, key := range []string{
		"llm.key", "adapters.places.key", "adapters.serper.key",
		"adapters.jina.key", "adapters.firecrawl.key",
		"adapters.pdl.key", "adapters.emailcheck.key",
	} {
		v.SetDefault(key, "")
	}

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
