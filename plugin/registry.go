package plugin

import (
	"context"
	"sort"
	"sync"

	"github.com/maltyxx/zenject/errors"
	"github.com/maltyxx/zenject/injector"
	"github.com/maltyxx/zenject/logger"
	"github.com/maltyxx/zenject/observability"
	"github.com/maltyxx/zenject/validation"
)

// LoaderFunc produces a plugin's modules when the plugin is first loaded.
// The first module in the returned slice is the plugin's entry module and
// is handed to the injector; any further modules ride along as its imports
// would, purely informationally.
type LoaderFunc func(ctx context.Context) ([]*injector.Module, error)

// Registry maps plugin names to loader functions and tracks which plugins
// have loaded. It owns its state: independent registries never share load
// history.
type Registry struct {
	loader *injector.Loader
	log    *logger.Logger

	mu      sync.Mutex
	plugins map[string]LoaderFunc
	loaded  map[string]struct{}
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets a custom logger.
func WithRegistryLogger(log *logger.Logger) RegistryOption {
	return func(r *Registry) { r.log = log }
}

// NewRegistry creates a Registry that loads plugin modules through the
// given injector loader.
func NewRegistry(loader *injector.Loader, opts ...RegistryOption) *Registry {
	r := &Registry{
		loader:  loader,
		log:     logger.GetGlobalLogger(),
		plugins: make(map[string]LoaderFunc),
		loaded:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register associates a plugin name with its loader function. Registering
// a name twice replaces the previous function unless the plugin has
// already loaded, which is an error.
func (r *Registry) Register(name string, fn LoaderFunc) error {
	v := validation.New().
		Required("name", name).
		Custom(fn != nil, "loader", "is nil")
	if err := v.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loaded[name]; ok {
		return errors.Newf(errors.ErrCodeAlreadyRegistered, "plugin %q is already loaded", name)
	}
	r.plugins[name] = fn

	r.log.Debug("Plugin registered", map[string]interface{}{
		logger.FieldPlugin: name,
	})
	return nil
}

// Load runs the named plugin's loader function and loads its entry module.
// Loading an unregistered name is an error; loading an already-loaded
// plugin is a no-op. Concurrent loads of the same plugin are serialized by
// the injector's own in-flight tracking, so the hook still fires once.
func (r *Registry) Load(ctx context.Context, name string) error {
	r.mu.Lock()
	if _, ok := r.loaded[name]; ok {
		r.mu.Unlock()
		return nil
	}
	fn, ok := r.plugins[name]
	r.mu.Unlock()

	if !ok {
		return errors.PluginNotRegistered(name)
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanPluginLoad)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrPluginName, name)

	modules, err := fn(ctx)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return errors.Newf(errors.ErrCodePluginLoadFailed, "loader function for plugin %q failed", name).WithCause(err)
	}
	if len(modules) == 0 || modules[0] == nil {
		err := errors.Newf(errors.ErrCodePluginLoadFailed, "loader function for plugin %q returned no entry module", name)
		observability.SetSpanError(ctx, err)
		return err
	}

	if err := r.loader.Load(ctx, modules[0]); err != nil {
		observability.SetSpanError(ctx, err)
		return errors.Newf(errors.ErrCodePluginLoadFailed, "failed to load plugin %q", name).WithCause(err)
	}

	r.mu.Lock()
	r.loaded[name] = struct{}{}
	r.mu.Unlock()

	r.log.Info("Plugin loaded", map[string]interface{}{
		logger.FieldPlugin: name,
		logger.FieldModule: modules[0].Name,
	})
	return nil
}

// IsRegistered reports whether a loader function is registered for name.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.plugins[name]
	return ok
}

// IsLoaded reports whether the named plugin has loaded.
func (r *Registry) IsLoaded(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.loaded[name]
	return ok
}

// RegisteredPlugins returns sorted names of all registered plugins.
func (r *Registry) RegisteredPlugins() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedKeys(r.plugins)
}

// LoadedPlugins returns sorted names of all loaded plugins.
func (r *Registry) LoadedPlugins() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.loaded))
	for name := range r.loaded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(m map[string]LoaderFunc) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
