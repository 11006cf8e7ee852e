// Package config loads pasal settings from a YAML file and PASAL_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coolbeans/pasal/pkg/logging"
)

// Config is the full set of runtime settings.
type Config struct {
	Log     logging.Config `mapstructure:"log" yaml:"log"`
	Lexicon LexiconConfig  `mapstructure:"lexicon" yaml:"lexicon"`
	Repair  RepairConfig   `mapstructure:"repair" yaml:"repair"`
	Parser  ParserConfig   `mapstructure:"parser" yaml:"parser"`
	Layout  LayoutConfig   `mapstructure:"layout" yaml:"layout"`
	Render  RenderConfig   `mapstructure:"render" yaml:"render"`
	Batch   BatchConfig    `mapstructure:"batch" yaml:"batch"`
	Metrics MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
}

// LexiconConfig selects the marker vocabulary.
type LexiconConfig struct {
	// Name of the lexicon to use ("en", "id", or one loaded from Dir).
	Name string `mapstructure:"name" yaml:"name"`
	// Dir holds additional *.yaml lexicon files. Optional.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// Watch reloads lexicon files from Dir when they change.
	Watch bool `mapstructure:"watch" yaml:"watch"`
}

// RepairConfig tunes word repair.
type RepairConfig struct {
	Disabled     bool `mapstructure:"disabled" yaml:"disabled"`
	MinShortPair int  `mapstructure:"min_short_pair" yaml:"min_short_pair"`
	Passes       int  `mapstructure:"passes" yaml:"passes"`
}

// ParserConfig tunes the structural parser.
type ParserConfig struct {
	// PeekBlankLimit is how many blank lines a grouping peek may skip; 0
	// means no limit.
	PeekBlankLimit int `mapstructure:"peek_blank_limit" yaml:"peek_blank_limit"`
}

type LayoutConfig struct {
	IndentPx int `mapstructure:"indent_px" yaml:"indent_px"`
}

type RenderConfig struct {
	Title     string `mapstructure:"title" yaml:"title"`
	Fragment  bool   `mapstructure:"fragment" yaml:"fragment"`
	NoStyles  bool   `mapstructure:"no_styles" yaml:"no_styles"`
	NoScript  bool   `mapstructure:"no_script" yaml:"no_script"`
	Collapsed bool   `mapstructure:"collapsed" yaml:"collapsed"`
	// Sanitize passes layout and rendered HTML through the rich-text policy.
	Sanitize bool `mapstructure:"sanitize" yaml:"sanitize"`
}

// BatchConfig bounds batch processing.
type BatchConfig struct {
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// MetricsConfig controls the Prometheus collectors.
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
	// Textfile, when set, is where batch runs write their metrics for the
	// node exporter textfile collector.
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	if strings.TrimSpace(c.Lexicon.Name) == "" {
		errs = append(errs, errors.New("lexicon.name is required"))
	}
	if c.Repair.MinShortPair < 0 {
		errs = append(errs, fmt.Errorf("repair.min_short_pair must be >= 0, got %d", c.Repair.MinShortPair))
	}
	if c.Repair.Passes < 0 {
		errs = append(errs, fmt.Errorf("repair.passes must be >= 0, got %d", c.Repair.Passes))
	}
	if c.Parser.PeekBlankLimit < 0 {
		errs = append(errs, fmt.Errorf("parser.peek_blank_limit must be >= 0, got %d", c.Parser.PeekBlankLimit))
	}
	if c.Layout.IndentPx < 0 {
		errs = append(errs, fmt.Errorf("layout.indent_px must be >= 0, got %d", c.Layout.IndentPx))
	}
	if c.Batch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("batch.concurrency must be >= 1, got %d", c.Batch.Concurrency))
	}
	if c.Batch.Timeout < 0 {
		errs = append(errs, fmt.Errorf("batch.timeout must be >= 0, got %s", c.Batch.Timeout))
	}
	return errors.Join(errs...)
}
