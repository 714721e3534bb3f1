// File: internal/config/config.go
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"
)

// Interface defines read access to the application configuration.
// Commands depend on it so tests can supply a hand-built Config.
type Interface interface {
	Logger() LoggerConfig
	Engine() EngineConfig
	Output() OutputConfig

	SetEngineSeed(uint64)
	SetEngineRulesPath(string)
	SetEngineStrict(bool)
	SetOutputFormat(string)
}

// Config is the root configuration, populated by viper.
type Config struct {
	LoggerCfg LoggerConfig `mapstructure:"logger" yaml:"logger"`
	EngineCfg EngineConfig `mapstructure:"engine" yaml:"engine"`
	OutputCfg OutputConfig `mapstructure:"output" yaml:"output"`
}

var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig { return c.LoggerCfg }
func (c *Config) Engine() EngineConfig { return c.EngineCfg }
func (c *Config) Output() OutputConfig { return c.OutputCfg }

func (c *Config) SetEngineSeed(seed uint64)     { c.EngineCfg.Seed = seed }
func (c *Config) SetEngineRulesPath(p string)   { c.EngineCfg.RulesPath = p }
func (c *Config) SetEngineStrict(strict bool)   { c.EngineCfg.Strict = strict }
func (c *Config) SetOutputFormat(format string) { c.OutputCfg.Format = format }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig names the console color for each log level.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// EngineConfig controls the selection engine.
type EngineConfig struct {
	// Seed drives tie-breaking between equally scored candidates.
	Seed uint64 `mapstructure:"seed" yaml:"seed"`
	// RulesPath points at a rules YAML file. Empty means the embedded catalog.
	RulesPath string `mapstructure:"rules_path" yaml:"rules_path"`
	// Strict enables JSON-Schema validation of blueprints before selection.
	Strict bool `mapstructure:"strict" yaml:"strict"`
}

// OutputConfig controls plan rendering.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	// Color is one of auto, always or never.
	Color string `mapstructure:"color" yaml:"color"`
}

// Formats lists the plan renderers the CLI accepts.
var Formats = []string{"json", "yaml", "xml", "table", "markdown"}

// DefaultSeed is the seed used when none is configured.
const DefaultSeed = 42

// SetDefaults applies the baseline values to a viper instance.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "warn")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "runeforge")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Engine --
	v.SetDefault("engine.seed", DefaultSeed)
	v.SetDefault("engine.rules_path", "")
	v.SetDefault("engine.strict", false)

	// -- Output --
	v.SetDefault("output.format", "json")
	v.SetDefault("output.color", "auto")
}

// EnvPrefix namespaces environment overrides, e.g. RUNEFORGE_ENGINE_SEED.
const EnvPrefix = "RUNEFORGE"

// NewViper returns a viper instance with defaults applied and environment
// overrides bound under EnvPrefix.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewDefaultConfig returns a validated Config holding only the defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		// Defaults are static; failing here is a programming error.
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// NewConfigFromViper unmarshals and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// A seed given as a negative number would silently wrap; reject it first.
	if raw := v.Get("engine.seed"); raw != nil {
		if err := checkSeed(raw); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func checkSeed(raw any) error {
	switch s := raw.(type) {
	case int:
		if s < 0 {
			return fmt.Errorf("engine.seed must be non-negative, got %d", s)
		}
	case int64:
		if s < 0 {
			return fmt.Errorf("engine.seed must be non-negative, got %d", s)
		}
	case float64:
		if s < 0 || s != math.Trunc(s) {
			return fmt.Errorf("engine.seed must be a non-negative integer, got %v", s)
		}
	case string:
		if strings.HasPrefix(strings.TrimSpace(s), "-") {
			return fmt.Errorf("engine.seed must be non-negative, got %q", s)
		}
	}
	return nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if !IsKnownFormat(c.OutputCfg.Format) {
		return fmt.Errorf("output.format must be one of %s, got %q", strings.Join(Formats, ", "), c.OutputCfg.Format)
	}
	switch c.OutputCfg.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("output.color must be one of auto, always, never, got %q", c.OutputCfg.Color)
	}
	switch c.LoggerCfg.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be console or json, got %q", c.LoggerCfg.Format)
	}
	if c.LoggerCfg.MaxSize < 0 || c.LoggerCfg.MaxBackups < 0 || c.LoggerCfg.MaxAge < 0 {
		return fmt.Errorf("logger rotation limits must be non-negative")
	}
	return nil
}

// IsKnownFormat reports whether format names a plan renderer.
func IsKnownFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}
