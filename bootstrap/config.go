package bootstrap

import (
	"github.com/maltyxx/zenject/config"
)

// Config is the interface constraint for application configuration types.
// Any struct that embeds config.RuntimeConfig (value embedding)
// automatically satisfies this interface via promoted methods.
//
// Example:
//
//	type AppConfig struct {
//	    config.RuntimeConfig `yaml:",inline" mapstructure:",squash"`
//	    Database DatabaseConfig `yaml:"database" mapstructure:"database"`
//	}
//
//	// AppConfig automatically satisfies Config via promoted methods.
//	app, err := bootstrap.NewApp[*AppConfig](&cfg)
type Config interface {
	GetRuntimeConfig() *config.RuntimeConfig
	ApplyDefaults()
	Validate() error
}
