// Package bootstrap runs the service lifecycle: components start in order,
// OnStart hooks run once everything is up, the app blocks until SIGINT or
// SIGTERM, and shutdown unwinds in reverse.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(srv)
//	app.OnStart(launcher.Start)
//	app.OnStopped(launcher.Stop)
//	err = app.Run(ctx)
package bootstrap
