package injector

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/maltyxx/zenject/di"
	"github.com/maltyxx/zenject/errors"
	"github.com/maltyxx/zenject/logger"
	"github.com/maltyxx/zenject/observability"
)

// Loader resolves module graphs against one container. It owns all load
// state (loaded names, in-flight loads, recorded exports) so independent
// graphs (parallel test suites, embedded runtimes) never share history.
//
// Per module name the state machine is declared → loading → loaded. No
// transition leaves loaded: a second Load of the same name is a fast no-op,
// checked before any import traversal. A name reached again while still
// mid-loading on the same import path is an import cycle and fails fast
// with MODULE_CYCLE rather than recursing forever.
type Loader struct {
	container di.Container
	registrar *Registrar
	log       *logger.Logger
	metrics   *observability.Metrics

	mu           sync.Mutex
	loaded       map[string]struct{}
	loading      map[string]*inflight
	waits        map[string]map[string]int
	exports      map[string][]Provider
	initializers map[string]func(ctx context.Context) error
}

// inflight lets a sibling importer of a module already being loaded wait
// for that load and share its outcome instead of starting a second one.
type inflight struct {
	done chan struct{}
	err  error
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets a custom logger.
func WithLoaderLogger(log *logger.Logger) LoaderOption {
	return func(l *Loader) { l.log = log }
}

// WithLoaderMetrics enables metric recording for module loads.
func WithLoaderMetrics(m *observability.Metrics) LoaderOption {
	return func(l *Loader) { l.metrics = m }
}

// WithRegistrar sets a custom provider registrar.
func WithRegistrar(r *Registrar) LoaderOption {
	return func(l *Loader) { l.registrar = r }
}

// NewLoader creates a Loader over the given container.
func NewLoader(container di.Container, opts ...LoaderOption) *Loader {
	l := &Loader{
		container:    container,
		log:          logger.GetGlobalLogger(),
		loaded:       make(map[string]struct{}),
		loading:      make(map[string]*inflight),
		waits:        make(map[string]map[string]int),
		exports:      make(map[string][]Provider),
		initializers: make(map[string]func(ctx context.Context) error),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.registrar == nil {
		l.registrar = NewRegistrar(container, WithRegistrarLogger(l.log))
	}
	return l
}

// Container returns the container the loader registers into.
func (l *Loader) Container() di.Container { return l.container }

// Registrar returns the provider registrar.
func (l *Loader) Registrar() *Registrar { return l.registrar }

// Load resolves the module graph rooted at m: imports first (concurrently,
// with each import's exports propagated only after that import settles),
// then m's own providers in declaration order, then m's own component.
func (l *Loader) Load(ctx context.Context, m *Module) error {
	return l.load(ctx, m, nil)
}

// ProcessDynamic records a dynamically produced module descriptor, its
// exports and a deferred initializer, under its stable name, exactly as a
// static declaration would. Afterwards the module is loadable by name and
// behaves identically to a static import.
func (l *Loader) ProcessDynamic(m *Module) error {
	if err := m.validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.exports[m.Name] = m.Exports
	l.initializers[m.Name] = func(ctx context.Context) error {
		return l.load(ctx, m, nil)
	}
	return nil
}

// LoadByName consumes the initializer recorded by ProcessDynamic. Loading a
// name that was never declared is an error; an already-loaded name is a
// no-op.
func (l *Loader) LoadByName(ctx context.Context, name string) error {
	l.mu.Lock()
	if _, ok := l.loaded[name]; ok {
		l.mu.Unlock()
		return nil
	}
	init, ok := l.initializers[name]
	l.mu.Unlock()

	if !ok {
		return errors.Newf(errors.ErrCodeModuleLoadFailed, "module %q has not been declared", name)
	}
	if err := init(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	delete(l.initializers, name)
	l.mu.Unlock()
	return nil
}

// IsLoaded reports whether the named module has fully initialized.
func (l *Loader) IsLoaded(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.loaded[name]
	return ok
}

// LoadedModules returns sorted names of all fully initialized modules.
func (l *Loader) LoadedModules() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, 0, len(l.loaded))
	for name := range l.loaded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// load is the guarded entry point. path carries the module names on the
// current import chain for cycle detection across goroutine boundaries.
func (l *Loader) load(ctx context.Context, m *Module, path []string) error {
	if err := m.validate(); err != nil {
		return err
	}

	// A name already on the current import path is a true cycle: the
	// module is mid-loading below us, so waiting on it would deadlock.
	for _, name := range path {
		if name == m.Name {
			return errors.ModuleCycle(m.Name)
		}
	}

	l.mu.Lock()
	if _, ok := l.loaded[m.Name]; ok {
		l.mu.Unlock()
		return nil
	}
	if fl, ok := l.loading[m.Name]; ok {
		// A sibling importer is already loading this module; share its
		// outcome rather than initializing twice. Waiting is only safe
		// if that load cannot in turn be blocked, through other waiting
		// loads, on a name in our own import chain. The check and the
		// edge insertion happen under one lock, so whichever side of a
		// mutual wait arrives second always sees the first side's edges.
		if l.waitWouldCycle(m.Name, path) {
			l.mu.Unlock()
			return errors.ModuleCycle(m.Name)
		}
		l.addWaits(path, m.Name)
		l.mu.Unlock()

		<-fl.done

		l.mu.Lock()
		l.removeWaits(path, m.Name)
		l.mu.Unlock()
		return fl.err
	}
	fl := &inflight{done: make(chan struct{})}
	l.loading[m.Name] = fl
	l.exports[m.Name] = m.Exports
	l.mu.Unlock()

	// Copy the path: sibling imports extend it concurrently and must not
	// share a backing array.
	childPath := make([]string, len(path), len(path)+1)
	copy(childPath, path)
	childPath = append(childPath, m.Name)

	err := l.doLoad(ctx, m, childPath)

	l.mu.Lock()
	delete(l.loading, m.Name)
	if err == nil {
		l.loaded[m.Name] = struct{}{}
	}
	l.mu.Unlock()

	fl.err = err
	close(fl.done)
	return err
}

// waitWouldCycle reports whether blocking on target would deadlock:
// it follows the recorded waits-for edges from target and returns true if
// they reach a name on the caller's own import chain, since nothing on
// that chain can finish until the caller returns. Caller holds l.mu.
func (l *Loader) waitWouldCycle(target string, path []string) bool {
	onPath := make(map[string]struct{}, len(path))
	for _, name := range path {
		onPath[name] = struct{}{}
	}

	visited := map[string]struct{}{target: {}}
	stack := []string{target}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := onPath[name]; ok {
			return true
		}
		for next := range l.waits[name] {
			if _, seen := visited[next]; !seen {
				visited[next] = struct{}{}
				stack = append(stack, next)
			}
		}
	}
	return false
}

// addWaits records that every name on the caller's import chain is blocked
// on target. Edges are counted: diamond imports can add the same edge from
// two goroutines. Caller holds l.mu.
func (l *Loader) addWaits(path []string, target string) {
	for _, name := range path {
		if l.waits[name] == nil {
			l.waits[name] = make(map[string]int)
		}
		l.waits[name][target]++
	}
}

// removeWaits drops the edges recorded by the matching addWaits call.
// Caller holds l.mu.
func (l *Loader) removeWaits(path []string, target string) {
	for _, name := range path {
		edges := l.waits[name]
		if edges == nil {
			continue
		}
		if edges[target]--; edges[target] <= 0 {
			delete(edges, target)
		}
		if len(edges) == 0 {
			delete(l.waits, name)
		}
	}
}

// doLoad performs the actual load sequence for a module that is not yet
// loaded and has been marked loading.
func (l *Loader) doLoad(ctx context.Context, m *Module, path []string) error {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanModuleLoad)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrModuleName, m.Name)

	l.log.Debug("Loading module", map[string]interface{}{
		logger.FieldModule: m.Name,
		"imports":          len(m.Imports),
		"providers":        len(m.Providers),
	})

	if err := l.loadImports(ctx, m, path); err != nil {
		observability.SetSpanError(ctx, err)
		if l.metrics != nil {
			l.metrics.RecordError(ctx, "load", m.Name)
		}
		return err
	}

	for _, p := range m.Providers {
		if err := l.registrar.Register(ctx, p); err != nil {
			observability.SetSpanError(ctx, err)
			return errors.ModuleLoad(m.Name, err)
		}
	}

	if m.New != nil {
		if err := l.registrar.Register(ctx, Component{Provide: m.Token(), New: m.New}); err != nil {
			observability.SetSpanError(ctx, err)
			return errors.ModuleLoad(m.Name, err)
		}
	}

	duration := time.Since(start)
	if l.metrics != nil {
		l.metrics.RecordModuleLoad(ctx, m.Name, "ok", duration)
	}
	l.log.Info("Module loaded", map[string]interface{}{
		logger.FieldModule:   m.Name,
		logger.FieldDuration: duration.Milliseconds(),
	})
	return nil
}

// loadImports loads every import concurrently. Export propagation for an
// import runs only after that import's own load has fully settled; there is
// no ordering guarantee between sibling imports.
func (l *Loader) loadImports(ctx context.Context, m *Module, path []string) error {
	if len(m.Imports) == 0 {
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, imp := range m.Imports {
		wg.Add(1)
		go func(imp *Module) {
			defer wg.Done()

			err := l.load(ctx, imp, path)
			if err == nil {
				err = l.propagateExports(ctx, imp.Name)
			}
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				} else {
					l.log.Error("Additional import failure", map[string]interface{}{
						logger.FieldModule: m.Name,
						logger.FieldError:  err.Error(),
					})
				}
				mu.Unlock()
			}
		}(imp)
	}
	wg.Wait()

	if firstErr != nil {
		return errors.ModuleLoad(m.Name, firstErr)
	}
	return nil
}

// propagateExports copies the named module's recorded exports into the
// current resolution scope. Tokens already registered are shared as-is:
// the importer sees the same singleton, never a second construction;
// while unregistered exports go through the registrar.
func (l *Loader) propagateExports(ctx context.Context, name string) error {
	l.mu.Lock()
	exported := l.exports[name]
	l.mu.Unlock()

	for _, p := range exported {
		if l.container.IsRegistered(p.Token()) {
			continue
		}
		if err := l.registrar.Register(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
