package config

import (
	"runtime"

	"github.com/spf13/viper"

	"github.com/coolbeans/pasal/pkg/repair"
)

const (
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
	DefaultLexicon          = "en"
	DefaultRepairPasses     = 2
	DefaultIndentPx         = 4
	DefaultMetricsNamespace = "pasal"
)

// DefaultConcurrency is the batch worker limit when none is configured.
func DefaultConcurrency() int {
	return runtime.NumCPU()
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields. Fields already set are kept.
func ApplyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Lexicon.Name == "" {
		cfg.Lexicon.Name = DefaultLexicon
	}
	if cfg.Repair.MinShortPair == 0 {
		cfg.Repair.MinShortPair = repair.DefaultMinShortPair
	}
	if cfg.Repair.Passes == 0 {
		cfg.Repair.Passes = DefaultRepairPasses
	}
	if cfg.Layout.IndentPx == 0 {
		cfg.Layout.IndentPx = DefaultIndentPx
	}
	if cfg.Batch.Concurrency == 0 {
		cfg.Batch.Concurrency = DefaultConcurrency()
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// setViperDefaults registers every key so environment overrides resolve
// without a config file.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("log.output_paths", []string{"stderr"})
	v.SetDefault("lexicon.name", DefaultLexicon)
	v.SetDefault("lexicon.dir", "")
	v.SetDefault("lexicon.watch", false)
	v.SetDefault("repair.disabled", false)
	v.SetDefault("repair.min_short_pair", repair.DefaultMinShortPair)
	v.SetDefault("repair.passes", DefaultRepairPasses)
	v.SetDefault("parser.peek_blank_limit", 0)
	v.SetDefault("layout.indent_px", DefaultIndentPx)
	v.SetDefault("render.title", "")
	v.SetDefault("render.fragment", false)
	v.SetDefault("render.no_styles", false)
	v.SetDefault("render.no_script", false)
	v.SetDefault("render.collapsed", false)
	v.SetDefault("render.sanitize", false)
	v.SetDefault("batch.concurrency", DefaultConcurrency())
	v.SetDefault("batch.timeout", "0s")
	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)
	v.SetDefault("metrics.textfile", "")
}
