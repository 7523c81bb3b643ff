// Package validation validates configuration structs with go-playground
// struct tags and reports failures as errors.AppError values.
//
//	type ServerConfig struct {
//	    Port int `mapstructure:"port" validate:"min=1,max=65535"`
//	}
//	err := validation.Validate(cfg)
package validation
