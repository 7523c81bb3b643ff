// Package config loads service configuration with Viper.
//
// A config.yml found in the standard locations (or passed explicitly) forms
// the base, a .env file is loaded through godotenv, and every environment
// variable is bound under its nested key variants so SERVER_PORT reaches
// server.port:
//
//	var cfg edge.Config
//	err := config.LoadConfig("edgeshim", &cfg, config.WithConfigFile(path))
package config
