// Package validation provides input validation for runtime configuration
// and descriptor fields.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation is
// recommended for configuration structs.
//
// # Struct Tag Validation
//
//	type RuntimeConfig struct {
//	    Name        string `validate:"required,min=2"`
//	    Environment string `validate:"required,oneof=development staging production"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("name", cfg.Name)
//	err := v.Validate()
package validation
