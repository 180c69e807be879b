package injector

import (
	"context"
	"fmt"
	"sync"

	"github.com/maltyxx/zenject/di"
	"github.com/maltyxx/zenject/errors"
	"github.com/maltyxx/zenject/lifecycle"
	"github.com/maltyxx/zenject/logger"
	"github.com/maltyxx/zenject/observability"
)

// Registrar registers provider descriptors into a container and runs
// post-construct hooks for eagerly constructed instances.
type Registrar struct {
	container di.Container
	log       *logger.Logger
	metrics   *observability.Metrics

	mu    sync.Mutex
	locks map[di.Token]*sync.Mutex
}

// RegistrarOption configures a Registrar.
type RegistrarOption func(*Registrar)

// WithRegistrarLogger sets a custom logger.
func WithRegistrarLogger(log *logger.Logger) RegistrarOption {
	return func(r *Registrar) { r.log = log }
}

// WithRegistrarMetrics enables metric recording for registrations.
func WithRegistrarMetrics(m *observability.Metrics) RegistrarOption {
	return func(r *Registrar) { r.metrics = m }
}

// NewRegistrar creates a Registrar over the given container.
func NewRegistrar(container di.Container, opts ...RegistrarOption) *Registrar {
	r := &Registrar{
		container: container,
		log:       logger.GetGlobalLogger(),
		locks:     make(map[di.Token]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register registers one provider descriptor. Re-declaring an already
// registered token is a silent no-op: overlapping module imports routinely
// declare the same provider and the first registration wins. Descriptor
// validation failures surface as PROVIDER_INVALID errors; post-construct
// hook failures are logged at the point of invocation and never abort the
// registration of sibling providers.
func (r *Registrar) Register(ctx context.Context, p Provider) error {
	if p == nil {
		return errors.ProviderRegistration(p, "nil provider descriptor")
	}
	token := p.Token()
	if token.IsZero() {
		return errors.ProviderRegistration(p, "provide token is empty")
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanProviderRegister)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrTokenName, token.Name())
	observability.SetSpanAttribute(ctx, observability.AttrProviderKind, p.providerKind())

	// One registration wins per token: the registered-check and the
	// registration itself, including eager construction and the
	// post-construct hook, are atomic for a given token. Two sibling
	// importers propagating the same export concurrently therefore
	// cannot both construct the singleton.
	lock := r.tokenLock(token)
	lock.Lock()
	defer lock.Unlock()

	if r.container.IsRegistered(token) {
		r.log.Debug("Provider already registered, skipping", map[string]interface{}{
			logger.FieldToken: token.Name(),
		})
		return nil
	}

	var err error
	switch p := p.(type) {
	case Component:
		if p.New == nil {
			return errors.ProviderRegistration(p, "component has no constructor")
		}
		err = r.registerConstructor(ctx, token, p.New, false)
	case Class:
		if p.UseClass == nil {
			return errors.ProviderRegistration(p, "class provider has no constructor")
		}
		err = r.registerConstructor(ctx, token, p.UseClass, p.Transient)
	case Value:
		err = r.container.RegisterInstance(token, p.UseValue)
	case Factory:
		if p.UseFactory == nil {
			return errors.ProviderRegistration(p, "factory provider has no factory function")
		}
		err = r.registerFactory(ctx, token, p)
	case Existing:
		if p.UseExisting.IsZero() {
			return errors.ProviderRegistration(p, "existing provider has no target token")
		}
		err = r.container.RegisterAlias(token, p.UseExisting)
	default:
		// The provider set is closed; this branch is unreachable for
		// descriptors built from this package.
		return errors.ProviderRegistration(p, "unrecognized provider kind")
	}
	if err != nil {
		return err
	}

	if r.metrics != nil {
		r.metrics.RecordProvider(ctx, p.providerKind())
	}
	r.log.Debug("Provider registered", map[string]interface{}{
		logger.FieldToken:    token.Name(),
		logger.FieldProvider: p.providerKind(),
	})
	return nil
}

// tokenLock returns the mutex serializing all registration attempts for
// one token, creating it on first use.
func (r *Registrar) tokenLock(token di.Token) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[token]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[token] = lock
	}
	return lock
}

// registerConstructor registers a constructor-backed provider and resolves
// it once so its post-construct hook runs at registration time.
func (r *Registrar) registerConstructor(ctx context.Context, token di.Token, ctor di.Constructor, transient bool) error {
	var err error
	if transient {
		err = r.container.RegisterTransient(token, ctor)
	} else {
		err = r.container.RegisterSingleton(token, ctor)
	}
	if err != nil {
		return err
	}

	instance, err := r.container.Resolve(token)
	if err != nil {
		return fmt.Errorf("constructing %s at registration: %w", token, err)
	}
	r.runInit(ctx, token, instance)
	return nil
}

// registerFactory resolves the factory's dependencies, invokes it exactly
// once, and registers the result. Subsequent resolutions return the cached
// value without re-invoking the factory.
func (r *Registrar) registerFactory(ctx context.Context, token di.Token, p Factory) error {
	deps := make([]any, 0, len(p.Deps))
	for _, dep := range p.Deps {
		resolved, err := r.container.Resolve(dep)
		if err != nil {
			return fmt.Errorf("resolving factory dependency %s for %s: %w", dep, token, err)
		}
		deps = append(deps, resolved)
	}

	result, err := p.UseFactory(deps...)
	if err != nil {
		return fmt.Errorf("factory for %s: %w", token, err)
	}

	if err := r.container.RegisterInstance(token, result); err != nil {
		return err
	}
	r.runInit(ctx, token, result)
	return nil
}

// runInit invokes the instance's post-construct hook when it implements
// lifecycle.Initializable. Hook failures are logged, not propagated, so one
// misbehaving component cannot abort the registration of its siblings.
func (r *Registrar) runInit(ctx context.Context, token di.Token, instance any) {
	init, ok := instance.(lifecycle.Initializable)
	if !ok {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Post-construct hook panicked", map[string]interface{}{
				logger.FieldToken: token.Name(),
				logger.FieldError: errors.InitFailed(token.Name(), fmt.Errorf("panic: %v", rec)).Error(),
			})
		}
	}()

	if err := init.OnInit(ctx); err != nil {
		r.log.Error("Post-construct hook failed", map[string]interface{}{
			logger.FieldToken: token.Name(),
			logger.FieldError: errors.InitFailed(token.Name(), err).Error(),
		})
	}
}
