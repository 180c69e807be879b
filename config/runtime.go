package config

import (
	"fmt"
	"time"

	"github.com/maltyxx/zenject/logger"
	"github.com/maltyxx/zenject/validation"
)

// TracingConfig controls the optional OTLP trace and metric export.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// ApplyDefaults applies default values to the tracing configuration.
func (c *TracingConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
}

// Validate checks the tracing block. The endpoint only matters when
// export is enabled.
func (c *TracingConfig) Validate() error {
	v := validation.New().
		Custom(c.SampleRate >= 0 && c.SampleRate <= 1, "sample_rate", "must be between 0 and 1")
	if c.Enabled {
		v.Required("endpoint", c.Endpoint)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// RuntimeConfig contains the fields every runtime instance needs.
// Applications extend it by embedding it in their own config structs.
//
// Example:
//
//	type AppConfig struct {
//	    config.RuntimeConfig `yaml:",inline" mapstructure:",squash"`
//	    Database DatabaseConfig `yaml:"database" mapstructure:"database"`
//	}
type RuntimeConfig struct {
	Name            string        `yaml:"name" mapstructure:"name" validate:"required"`
	Environment     string        `yaml:"environment" mapstructure:"environment" validate:"required,oneof=development staging production"`
	Version         string        `yaml:"version" mapstructure:"version"`
	Debug           bool          `yaml:"debug" mapstructure:"debug"`
	GracefulTimeout time.Duration `yaml:"graceful_timeout" mapstructure:"graceful_timeout"`
	Logging         logger.Config `yaml:"logging" mapstructure:"logging"`
	Tracing         TracingConfig `yaml:"tracing" mapstructure:"tracing"`
}

// GetRuntimeConfig returns the base RuntimeConfig.
// When embedded in a larger config struct, this method is promoted so the
// embedding struct automatically satisfies the Config interface.
func (c *RuntimeConfig) GetRuntimeConfig() *RuntimeConfig {
	return c
}

// ApplyDefaults applies default values to the base configuration.
// Override this in embedding structs and call c.RuntimeConfig.ApplyDefaults() first.
func (c *RuntimeConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.GracefulTimeout == 0 {
		c.GracefulTimeout = 15 * time.Second
	}
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
	c.Tracing.ApplyDefaults()
}

// Validate validates the base configuration fields.
// Override this in embedding structs and call c.RuntimeConfig.Validate() first.
func (c *RuntimeConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	if err := c.Tracing.Validate(); err != nil {
		return fmt.Errorf("config.tracing: %w", err)
	}
	return nil
}
