package lifecycle

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/maltyxx/zenject/di"
	"github.com/maltyxx/zenject/errors"
	"github.com/maltyxx/zenject/logger"
	"github.com/maltyxx/zenject/observability"
)

// Event identifies a phase of the shutdown sequence.
type Event string

const (
	EventBeforeShutdown Event = "beforeShutdown"
	EventShutdown       Event = "shutdown"
	EventAfterShutdown  Event = "afterShutdown"
)

// Listener is a callback invoked when a shutdown event fires. A failing
// listener is logged and never blocks its siblings.
type Listener func(ctx context.Context) error

// ListenerHandle identifies a registered listener for removal.
type ListenerHandle int64

// AppLifecycle tracks instances requiring teardown and coordinates an
// ordered shutdown: beforeShutdown listeners, shutdown listeners, concurrent
// teardown of every resolved disposable instance, afterShutdown listeners,
// process exit.
//
// State moves running → shutting-down exactly once; concurrent Shutdown
// calls collapse into the first.
type AppLifecycle struct {
	container di.Container
	log       *logger.Logger
	metrics   *observability.Metrics

	gracefulTimeout time.Duration
	exit            func(code int)

	mu           sync.Mutex
	shuttingDown bool
	managed      map[any]struct{}
	listeners    map[Event]map[ListenerHandle]Listener
	nextHandle   ListenerHandle
}

// Option configures the AppLifecycle during creation.
type Option func(*AppLifecycle)

// WithGracefulTimeout bounds the teardown fan-out. Hooks still running when
// the timeout expires see a canceled context.
func WithGracefulTimeout(d time.Duration) Option {
	return func(l *AppLifecycle) { l.gracefulTimeout = d }
}

// WithExitFunc replaces process termination. Test harnesses pass a no-op so
// the coordinator can be exercised repeatedly.
func WithExitFunc(fn func(code int)) Option {
	return func(l *AppLifecycle) { l.exit = fn }
}

// WithLogger sets a custom logger.
func WithLogger(log *logger.Logger) Option {
	return func(l *AppLifecycle) { l.log = log }
}

// WithMetrics enables teardown outcome recording.
func WithMetrics(m *observability.Metrics) Option {
	return func(l *AppLifecycle) { l.metrics = m }
}

// New creates an AppLifecycle over the given container.
func New(container di.Container, opts ...Option) *AppLifecycle {
	l := &AppLifecycle{
		container:       container,
		log:             logger.GetGlobalLogger(),
		gracefulTimeout: 15 * time.Second,
		exit:            os.Exit,
		managed:         make(map[any]struct{}),
		listeners:       make(map[Event]map[ListenerHandle]Listener),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register adds an instance to the managed set so its OnDestroy hook runs at
// shutdown even if the container never resolved it. Instances must be
// comparable; pointers always are.
func (l *AppLifecycle) Register(instance any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.managed[instance] = struct{}{}
}

// Unregister removes an instance from the managed set.
func (l *AppLifecycle) Unregister(instance any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.managed, instance)
}

// AddEventListener registers a listener for a shutdown event and returns a
// handle for removal.
func (l *AppLifecycle) AddEventListener(event Event, fn Listener) ListenerHandle {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextHandle++
	handle := l.nextHandle
	if l.listeners[event] == nil {
		l.listeners[event] = make(map[ListenerHandle]Listener)
	}
	l.listeners[event][handle] = fn
	return handle
}

// RemoveEventListener removes a previously registered listener.
func (l *AppLifecycle) RemoveEventListener(event Event, handle ListenerHandle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.listeners[event], handle)
}

// IsShuttingDown reports whether shutdown has begun.
func (l *AppLifecycle) IsShuttingDown() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.shuttingDown
}

// Shutdown runs the coordinated teardown sequence and terminates the
// process with exitCode. A second call is a no-op. Hook and listener
// failures are logged, never propagated: nothing may abort an orderly
// shutdown once it begins.
func (l *AppLifecycle) Shutdown(ctx context.Context, exitCode int) {
	l.mu.Lock()
	if l.shuttingDown {
		l.mu.Unlock()
		return
	}
	l.shuttingDown = true
	l.mu.Unlock()

	l.log.Info("Shutdown starting", map[string]interface{}{
		logger.FieldExitCode: exitCode,
		"timeout":            l.gracefulTimeout.String(),
	})

	ctx, cancel := context.WithTimeout(ctx, l.gracefulTimeout)
	defer cancel()

	ctx, span := observability.StartSpan(ctx, observability.SpanShutdown)
	defer span.End()
	status := "ok"
	if exitCode != 0 {
		status = "error"
	}
	observability.SetSpanAttribute(ctx, observability.AttrStatus, status)

	l.emit(ctx, EventBeforeShutdown)
	l.emit(ctx, EventShutdown)

	l.destroyAll(ctx)

	l.emit(ctx, EventAfterShutdown)

	l.log.Info("Shutdown complete", map[string]interface{}{
		logger.FieldExitCode: exitCode,
	})
	l.exit(exitCode)
}

// emit invokes every listener for the event concurrently. Failures are
// logged and do not block sibling listeners.
func (l *AppLifecycle) emit(ctx context.Context, event Event) {
	l.mu.Lock()
	fns := make([]Listener, 0, len(l.listeners[event]))
	for _, fn := range l.listeners[event] {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	if len(fns) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, fn := range fns {
		wg.Add(1)
		go func(fn Listener) {
			defer wg.Done()
			if err := l.safeListener(ctx, fn); err != nil {
				l.log.Error("Lifecycle listener failed", map[string]interface{}{
					logger.FieldEvent: string(event),
					logger.FieldError: err.Error(),
				})
			}
		}(fn)
	}
	wg.Wait()
}

func (l *AppLifecycle) safeListener(ctx context.Context, fn Listener) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return fn(ctx)
}

// destroyAll tears down every disposable instance: resolved container
// registrations plus the managed set, deduplicated by identity.
func (l *AppLifecycle) destroyAll(ctx context.Context) {
	targets := l.collectDisposables()
	if len(targets) == 0 {
		return
	}

	l.log.Debug("Tearing down instances", map[string]interface{}{
		"count": len(targets),
	})

	var wg sync.WaitGroup
	for _, d := range targets {
		wg.Add(1)
		go func(d Disposable) {
			defer wg.Done()
			if err := l.safeDestroy(ctx, d); err != nil {
				l.log.Error("Teardown hook failed", map[string]interface{}{
					logger.FieldError: errors.New(errors.ErrCodeShutdownFailed, "teardown hook failed").WithCause(err).Error(),
				})
				l.recordTeardown(ctx, "error")
				return
			}
			l.recordTeardown(ctx, "ok")
		}(d)
	}
	wg.Wait()
}

func (l *AppLifecycle) recordTeardown(ctx context.Context, status string) {
	if l.metrics != nil {
		l.metrics.RecordTeardown(ctx, status)
	}
}

func (l *AppLifecycle) safeDestroy(ctx context.Context, d Disposable) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return d.OnDestroy(ctx)
}

// collectDisposables enumerates already-resolved container registrations and
// the managed set. Registrations that were never resolved are skipped so
// shutdown cannot construct new instances mid-teardown.
func (l *AppLifecycle) collectDisposables() []Disposable {
	seen := make(map[any]struct{})
	var targets []Disposable

	if l.container != nil {
		for _, info := range l.container.Registrations() {
			if !info.Resolved {
				continue
			}
			instance, err := l.container.Resolve(info.Token)
			if err != nil {
				// Excluded from teardown, everything else proceeds.
				l.log.Warn("Failed to resolve instance for teardown", map[string]interface{}{
					logger.FieldToken: info.Token.Name(),
					logger.FieldError: err.Error(),
				})
				continue
			}
			d, ok := instance.(Disposable)
			if !ok {
				continue
			}
			if _, dup := seen[instance]; dup {
				continue
			}
			seen[instance] = struct{}{}
			targets = append(targets, d)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for instance := range l.managed {
		d, ok := instance.(Disposable)
		if !ok {
			continue
		}
		if _, dup := seen[instance]; dup {
			continue
		}
		seen[instance] = struct{}{}
		targets = append(targets, d)
	}
	return targets
}
