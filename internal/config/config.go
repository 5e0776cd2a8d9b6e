package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/vic/lambdalab/pkg/graph"
	"github.com/vic/lambdalab/pkg/reduce"
)

// Config holds all application configuration.
type Config struct {
	Reduction ReductionConfig `mapstructure:"reduction"`
	Graph     GraphConfig     `mapstructure:"graph"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type ReductionConfig struct {
	Budget   int    `mapstructure:"budget"`
	Strategy string `mapstructure:"strategy"`
}

type GraphConfig struct {
	MaxExpansions int `mapstructure:"max_expansions"`
}

type GeneratorConfig struct {
	Parallelism int `mapstructure:"parallelism"`
	// MaxSize is the largest term size the workbench will enumerate.
	MaxSize int `mapstructure:"max_size"`
	// MaxFree is the largest number of free variables it will enumerate over.
	MaxFree int `mapstructure:"max_free"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	// OTLPEndpoint is the OTLP gRPC endpoint; empty disables export.
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

// Default returns the configuration used when no file or environment
// variable overrides a key.
func Default() *Config {
	return &Config{
		Reduction: ReductionConfig{Budget: reduce.DefaultBudget, Strategy: reduce.Outermost.String()},
		Graph:     GraphConfig{MaxExpansions: graph.DefaultMaxExpansions},
		Generator: GeneratorConfig{Parallelism: 1, MaxSize: 12, MaxFree: 26},
		Log:       LogConfig{Level: "info", Format: "text"},
		Tracing:   TracingConfig{ServiceName: "lambdalab", SampleRate: 1.0},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("reduction.budget", d.Reduction.Budget)
	v.SetDefault("reduction.strategy", d.Reduction.Strategy)
	v.SetDefault("graph.max_expansions", d.Graph.MaxExpansions)
	v.SetDefault("generator.parallelism", d.Generator.Parallelism)
	v.SetDefault("generator.max_size", d.Generator.MaxSize)
	v.SetDefault("generator.max_free", d.Generator.MaxFree)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Reduction.Budget <= 0 {
		warnings = append(warnings, fmt.Sprintf("reduction budget %d is not positive, using %d", c.Reduction.Budget, reduce.DefaultBudget))
	}
	if _, err := reduce.ParseStrategy(c.Reduction.Strategy); err != nil {
		warnings = append(warnings, fmt.Sprintf("reduction strategy: %v", err))
	}
	if c.Graph.MaxExpansions <= 0 {
		warnings = append(warnings, fmt.Sprintf("graph max_expansions %d is not positive, using %d", c.Graph.MaxExpansions, graph.DefaultMaxExpansions))
	}
	if c.Generator.Parallelism < 0 {
		warnings = append(warnings, fmt.Sprintf("generator parallelism %d is negative", c.Generator.Parallelism))
	}
	if c.Generator.MaxSize < 0 {
		warnings = append(warnings, fmt.Sprintf("generator max_size %d is negative", c.Generator.MaxSize))
	}
	if c.Generator.MaxFree < 0 {
		warnings = append(warnings, fmt.Sprintf("generator max_free %d is negative", c.Generator.MaxFree))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		warnings = append(warnings, fmt.Sprintf("log level '%s' is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		warnings = append(warnings, fmt.Sprintf("log format '%s' is not one of text, json", c.Log.Format))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}

	return warnings
}

// Strategy returns the configured reduction strategy, falling back to
// outermost when the name is not recognised.
func (c *Config) Strategy() reduce.Strategy {
	s, err := reduce.ParseStrategy(c.Reduction.Strategy)
	if err != nil {
		return reduce.Outermost
	}
	return s
}

// Load reads configuration from an optional file and the environment.
// Environment variables use the LAMBDALAB_ prefix, e.g.
// LAMBDALAB_REDUCTION_BUDGET. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("LAMBDALAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}
