package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/maltyxx/zenject/config"
	"github.com/maltyxx/zenject/di"
	"github.com/maltyxx/zenject/injector"
	"github.com/maltyxx/zenject/lifecycle"
	"github.com/maltyxx/zenject/logger"
	"github.com/maltyxx/zenject/observability"
	"github.com/maltyxx/zenject/plugin"
	"github.com/maltyxx/zenject/version"
)

// App is a fully wired runtime instance. The type parameter C is the
// config type, which must satisfy the Config interface. Any struct
// embedding config.RuntimeConfig automatically satisfies Config.
//
// Example:
//
//	app, err := bootstrap.NewApp(&myConfig)
//	app.OnStart(func(ctx context.Context) error {
//	    // module graph is loaded, application not yet marked ready
//	    return nil
//	})
//	app.Run(context.Background(), rootModule)
type App[C Config] struct {
	Name      string
	Version   string
	Cfg       C
	Container di.Container
	Loader    *injector.Loader
	Plugins   *plugin.Registry
	Lifecycle *lifecycle.AppLifecycle
	Logger    *logger.Logger
	Summary   *Summary

	metrics        *observability.Metrics
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp creates a new application instance from a typed config.
// It applies defaults, validates the config, initializes the logger, and
// wires the container, module loader, plugin registry, and shutdown
// coordinator together.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetRuntimeConfig()
	o := resolveOptions(opts)

	app := &App[C]{
		Name:    base.Name,
		Version: base.Version,
		Cfg:     cfg,
	}
	if app.Version == "" {
		app.Version = version.GetShortVersion()
	}

	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(&base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	app.Container = o.container
	if app.Container == nil {
		app.Container = di.NewContainer()
	}

	if err := app.initObservability(base.Tracing.Enabled, base); err != nil {
		return nil, err
	}

	gracefulTimeout := base.GracefulTimeout
	if o.gracefulTimeout != nil {
		gracefulTimeout = *o.gracefulTimeout
	}
	lcOpts := []lifecycle.Option{
		lifecycle.WithGracefulTimeout(gracefulTimeout),
		lifecycle.WithLogger(app.Logger),
	}
	if o.exitFunc != nil {
		lcOpts = append(lcOpts, lifecycle.WithExitFunc(o.exitFunc))
	}
	if app.metrics != nil {
		lcOpts = append(lcOpts, lifecycle.WithMetrics(app.metrics))
	}
	app.Lifecycle = lifecycle.New(app.Container, lcOpts...)

	// Flush the exporters at the tail of the shutdown sequence.
	if app.tracerProvider != nil {
		app.Lifecycle.AddEventListener(lifecycle.EventAfterShutdown, func(ctx context.Context) error {
			if err := app.tracerProvider.Shutdown(ctx); err != nil {
				return err
			}
			return app.meterProvider.Shutdown(ctx)
		})
	}

	loaderOpts := []injector.LoaderOption{injector.WithLoaderLogger(app.Logger)}
	if app.metrics != nil {
		loaderOpts = append(loaderOpts, injector.WithLoaderMetrics(app.metrics))
	}
	app.Loader = injector.NewLoader(app.Container, loaderOpts...)
	app.Plugins = plugin.NewRegistry(app.Loader, plugin.WithRegistryLogger(app.Logger))

	// OnStop hooks run at the start of the shutdown sequence, before
	// instance teardown.
	app.Lifecycle.AddEventListener(lifecycle.EventBeforeShutdown, func(ctx context.Context) error {
		return runHooks(ctx, app.onStop)
	})

	app.Summary = NewSummary(base.Name, app.Version, base.Environment)
	app.Summary.SetTracingEnabled(base.Tracing.Enabled)
	return app, nil
}

// Run loads the module graph rooted at root, fires startup hooks, and
// blocks until an OS signal or context cancellation triggers the
// coordinated shutdown. It only returns on startup failure; a clean
// shutdown ends with the lifecycle's exit function.
func (a *App[C]) Run(ctx context.Context, root *injector.Module) error {
	if err := a.startup(ctx, root); err != nil {
		return err
	}

	a.Logger.Info("Application ready, waiting for shutdown signal")
	a.Lifecycle.HandleSignals(ctx)
	return nil
}

// RunTask executes a finite task with the full bootstrap lifecycle.
// Unlike Run, it does not block on shutdown signals: it runs the task
// function and shuts down when the task completes or the context is
// canceled (e.g., via SIGINT/SIGTERM).
//
// Use RunTask for CLI tools, batch jobs, and one-shot processes that need
// the same wiring (config, logger, modules, hooks) but have a finite
// workflow instead of running forever.
func (a *App[C]) RunTask(ctx context.Context, root *injector.Module, task func(ctx context.Context) error) error {
	if err := a.startup(ctx, root); err != nil {
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("Received signal, canceling task", map[string]interface{}{
				logger.FieldSignal: sig.String(),
			})
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)

	exitCode := 0
	if taskErr != nil {
		exitCode = 1
		a.Logger.Error("Task failed", map[string]interface{}{
			logger.FieldError: taskErr.Error(),
		})
	}
	a.Lifecycle.Shutdown(context.Background(), exitCode)
	return taskErr
}

// Shutdown triggers the coordinated teardown with exit code 0. Use when
// managing your own lifecycle instead of Run.
func (a *App[C]) Shutdown(ctx context.Context) {
	a.Lifecycle.Shutdown(ctx, 0)
}

// RegisterPlugin associates a plugin name with its loader function.
func (a *App[C]) RegisterPlugin(name string, fn plugin.LoaderFunc) error {
	return a.Plugins.Register(name, fn)
}

// LoadPlugin loads a registered plugin by name.
func (a *App[C]) LoadPlugin(ctx context.Context, name string) error {
	return a.Plugins.Load(ctx, name)
}

// startup performs the common initialization sequence shared by Run and
// RunTask: load the module graph, fire OnStart hooks, fire OnReady hooks,
// display the summary.
func (a *App[C]) startup(ctx context.Context, root *injector.Module) error {
	start := time.Now()

	a.Logger.Info("Starting application", map[string]interface{}{
		"name":    a.Name,
		"version": a.Version,
	})

	if root != nil {
		if err := a.Loader.Load(ctx, root); err != nil {
			return fmt.Errorf("module graph load failed: %w", err)
		}
	}

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}
	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.Summary.SetStartupDuration(time.Since(start))
	a.DisplaySummary()
	return nil
}

// DisplaySummary prints the startup summary collected from the loader,
// plugin registry, and container.
func (a *App[C]) DisplaySummary() {
	a.Summary.Display(a.Loader, a.Plugins, a.Container)
}

// initObservability stands up OTLP trace and metric export when enabled.
// It runs before the lifecycle is built so teardown metrics can be wired
// into the shutdown coordinator.
func (a *App[C]) initObservability(enabled bool, base *config.RuntimeConfig) error {
	if !enabled {
		return nil
	}

	ctx := context.Background()
	tp, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    base.Name,
		ServiceVersion: base.Version,
		Environment:    base.Environment,
		Endpoint:       base.Tracing.Endpoint,
		Insecure:       base.Tracing.Insecure,
		SampleRate:     base.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("tracer init: %w", err)
	}
	a.tracerProvider = tp

	mp, err := observability.InitMeter(ctx, &observability.MeterConfig{
		ServiceName:    base.Name,
		ServiceVersion: base.Version,
		Environment:    base.Environment,
		Endpoint:       base.Tracing.Endpoint,
		Insecure:       base.Tracing.Insecure,
	})
	if err != nil {
		return fmt.Errorf("meter init: %w", err)
	}
	a.meterProvider = mp

	metrics, err := observability.NewMetrics(observability.Meter(a.Name))
	if err != nil {
		return fmt.Errorf("metrics init: %w", err)
	}
	a.metrics = metrics
	return nil
}
