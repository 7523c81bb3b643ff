package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/edgeshim/edge"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "edgeshim",
	Short: "Edge shim for a backend web process",
	Long: `edgeshim binds the public port immediately, answers health probes,
launches the backend web server and forwards /api traffic to it.

Configuration is read from config.yml (./cmd/edgeshim/, ./config/, ./), .env
files and the environment, e.g. SERVER_PORT, BACKEND_PORT, PROXY_PREFIX.
PORT overrides the listen port.

Without a subcommand edgeshim runs serve.`,
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: search standard locations)")
	rootCmd.AddCommand(serveCmd, healthcheckCmd, versionCmd)
}

// loadConfig loads configuration with defaults applied, then applies
// command-line overrides so flags win over files and the environment.
func loadConfig(overrides func(*edge.Config)) (*edge.Config, error) {
	cfg, err := edge.Load(configFile)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if overrides != nil {
		overrides(cfg)
	}
	return cfg, nil
}
