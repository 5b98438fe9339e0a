// Package config loads service configuration from defaults, an optional
// YAML file, and LOBBYSCOPE_-prefixed environment variables.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config covers all three services; each binary reads the fields it needs.
type Config struct {
	Addr    string `koanf:"addr"`
	LogJSON bool   `koanf:"log_json"`
	Debug   bool   `koanf:"debug"`

	Model     string `koanf:"model"`
	MaxTokens int64  `koanf:"max_tokens"`

	FirmDataPath  string `koanf:"firm_data_path"`
	IssueMapPath  string `koanf:"issue_map_path"`
	ScenariosPath string `koanf:"scenarios_path"`

	ScoringMode string `koanf:"scoring_mode"`
	TopFirms    int    `koanf:"top_firms"`

	MemoLimit       int    `koanf:"memo_limit"`
	UsageDBPath     string `koanf:"usage_db_path"`
	UsageLogKey     string `koanf:"usage_log_key"`
	StageTimeoutSec int    `koanf:"stage_timeout_sec"`
}

// New returns the defaults every layer below env starts from.
func New() *Config {
	return &Config{
		Addr:            ":8080",
		LogJSON:         false,
		Model:           "",
		MaxTokens:       4096,
		FirmDataPath:    "data/final-enriched-firms.json",
		IssueMapPath:    "data/issue-committee-map.json",
		ScenariosPath:   "data/example-scenarios.json",
		ScoringMode:     "percentile",
		TopFirms:        3,
		MemoLimit:       20,
		UsageDBPath:     "usage.db",
		StageTimeoutSec: 60,
	}
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if LOBBYSCOPE_CONFIG is set
//  3. env (prefix LOBBYSCOPE_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("LOBBYSCOPE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Env keys like LOBBYSCOPE_MEMO_LIMIT map to memo_limit, preserving
	// underscores to match the koanf tags on the struct.
	envProvider := env.Provider("LOBBYSCOPE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "lobbyscope_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.ScoringMode != "percentile" && cfg.ScoringMode != "rubric" {
		return nil, errors.New("scoring_mode must be percentile or rubric")
	}
	if cfg.MemoLimit < 0 {
		return nil, errors.New("memo_limit must not be negative")
	}
	return &cfg, nil
}
