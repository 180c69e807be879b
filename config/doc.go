// Package config provides configuration loading and validation for
// applications built on the runtime.
//
// It uses Viper to load configuration from files and environment
// variables, with .env support via godotenv. Values from the environment
// override file values.
//
// # Usage
//
//	var cfg config.RuntimeConfig
//	err := config.Load("my-app", &cfg)
//	cfg.ApplyDefaults()
//	err = cfg.Validate()
//
// Environment variables map onto nested keys by underscore-separated
// paths (e.g., LOGGING_LEVEL overrides logging.level).
package config
