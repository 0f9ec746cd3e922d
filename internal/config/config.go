// Package config loads and validates the engine configuration. Validation
// happens once at load time; the pipeline assumes a validated Config and
// does not re-check per pass.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// #region config

// Config is the full engine configuration.
type Config struct {
	DBPath string `mapstructure:"db_path" validate:"required"`

	SmartRanking bool    `mapstructure:"smart_ranking"`
	K            int     `mapstructure:"k" validate:"gt=0"`
	Alpha        float64 `mapstructure:"alpha" validate:"gte=0,lte=1"`
	EMAPreset    string  `mapstructure:"ema_preset" validate:"oneof=low medium high"`
	Limit        int     `mapstructure:"limit" validate:"gt=0"`
	HistoryCap   int     `mapstructure:"history_cap" validate:"gt=0"`

	SimilarityDecay float64 `mapstructure:"similarity_decay" validate:"gt=0"`
	FacetTimeoutMs  int     `mapstructure:"facet_timeout_ms" validate:"gt=0"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Path    string `mapstructure:"path"` // empty disables the file core
	Level   string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Console bool   `mapstructure:"console"`
}

// #endregion config

// #region load

// Load reads configuration from an optional file plus CONTEXTRANK_* env
// vars, applies defaults, and validates. Out-of-range values (e.g. k <= 0)
// are rejected here with a descriptive error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db_path", "contextrank.db")
	v.SetDefault("smart_ranking", true)
	v.SetDefault("k", 10)
	v.SetDefault("alpha", 0.7)
	v.SetDefault("ema_preset", "medium")
	v.SetDefault("limit", 10)
	v.SetDefault("history_cap", 50)
	v.SetDefault("similarity_decay", 0.5)
	v.SetDefault("facet_timeout_ms", 250)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)

	v.SetEnvPrefix("CONTEXTRANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// #endregion load

// #region validate

// Validate checks a Config and returns a descriptive error naming every
// offending field.
func Validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// #endregion validate
