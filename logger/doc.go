// Package logger provides structured logging for edgeshim using zerolog.
//
// Every subsystem logs through a component-scoped logger so lines from the
// launcher, the proxy and the supervised backend can be told apart:
//
//	log := logger.WithComponent("launcher")
//	log.Info("candidate spawned", logger.Fields("candidate", c.Name, "pid", pid))
//
// The console format is the default; set logging.format to "json" for
// machine-readable output.
package logger
