package main

import (
	"context"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kbukum/edgeshim/edge"
)

var serveFlags struct {
	port        int
	backendPort int
	prefix      string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the edge server and the backend",
	Long: `Bind the edge port, start the backend launcher and proxy API traffic.

Exits 0 after a graceful shutdown on SIGINT or SIGTERM, and 1 when startup
fails (for example when the port is taken).

Example:
  edgeshim serve
  edgeshim serve --port 8080 --backend-port 8000 --prefix /api`,
	RunE: runServe,
}

func init() {
	// The root command runs serve too, so it takes the same flags.
	for _, c := range []*cobra.Command{serveCmd, rootCmd} {
		f := c.Flags()
		f.IntVarP(&serveFlags.port, "port", "p", 0, "edge listen port (overrides server.port)")
		f.IntVar(&serveFlags.backendPort, "backend-port", 0, "backend port (overrides backend.port)")
		f.StringVar(&serveFlags.prefix, "prefix", "", "proxied path prefix (overrides proxy.prefix)")
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveFlags.port != 0 {
		// PORT is re-read whenever defaults are applied.
		_ = os.Setenv(edge.EnvPort, strconv.Itoa(serveFlags.port))
	}
	cfg, err := loadConfig(func(c *edge.Config) {
		if serveFlags.backendPort != 0 {
			c.Backend.Port = serveFlags.backendPort
		}
		if serveFlags.prefix != "" {
			c.Proxy.Prefix = serveFlags.prefix
		}
	})
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return edge.Run(ctx, cfg)
}
