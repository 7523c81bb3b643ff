package bootstrap

import "github.com/kbukum/edgeshim/config"

// Config is the constraint for application configuration types. Any struct
// embedding config.ServiceConfig satisfies GetServiceConfig via promotion.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
