// Package bootstrap assembles a complete runtime instance: configuration,
// logging, container, module loader, plugin registry, and the shutdown
// coordinator.
//
// # Quick Start
//
//	var cfg AppConfig
//	config.Load("my-app", &cfg)
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(ctx, rootModule); err != nil {
//	    log.Fatal(err)
//	}
//
// Run loads the module graph, fires startup hooks, then blocks until an OS
// signal triggers the coordinated shutdown. RunTask does the same for
// finite workloads that end on their own.
package bootstrap
