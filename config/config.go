package config

import (
	"time"

	"github.com/kbukum/rendergraph/logger"
	"github.com/kbukum/rendergraph/validation"
)

// Config is the configuration of a render graph workspace.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string `yaml:"version" mapstructure:"version"`

	Logging       logger.Config       `yaml:"logging" mapstructure:"logging"`
	Catalog       CatalogConfig       `yaml:"catalog" mapstructure:"catalog"`
	Validation    ValidationConfig    `yaml:"validation" mapstructure:"validation"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// CatalogConfig lists the pass catalog files loaded at startup.
// Every .yaml and .yml file directly inside a Dirs entry is loaded.
type CatalogConfig struct {
	Dirs  []string `yaml:"dirs" mapstructure:"dirs"`
	Files []string `yaml:"files" mapstructure:"files"`
}

// ValidationConfig controls how graphs treat pass configuration.
type ValidationConfig struct {
	AllowUnknownOptions bool `yaml:"allow_unknown_options" mapstructure:"allow_unknown_options"`
	// MaxPasses limits passes per graph. Zero means no limit.
	MaxPasses int `yaml:"max_passes" mapstructure:"max_passes" validate:"gte=0"`
}

// ObservabilityConfig enables OTLP tracing and metrics export.
type ObservabilityConfig struct {
	Tracing    bool          `yaml:"tracing" mapstructure:"tracing"`
	Metrics    bool          `yaml:"metrics" mapstructure:"metrics"`
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
}

// Enabled reports whether any exporter is switched on.
func (c *ObservabilityConfig) Enabled() bool {
	return c.Tracing || c.Metrics
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	c.Logging.ApplyDefaults()
	if c.Observability.Endpoint == "" {
		c.Observability.Endpoint = "localhost:4318"
	}
	if c.Observability.SampleRate == 0 {
		c.Observability.SampleRate = 1.0
	}
	if c.Observability.Interval == 0 {
		c.Observability.Interval = 15 * time.Second
	}
}

// Validate checks struct tags first and then the logging section.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	return c.Logging.Validate()
}
