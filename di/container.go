package di

import (
	"fmt"
	"sync"

	"github.com/maltyxx/zenject/errors"
)

// Mode determines how a registration produces its value.
type Mode int

const (
	Singleton Mode = iota // Constructed once, cached forever
	Transient             // Constructed on every resolve
	Instance              // Pre-created value
	Alias                 // Forwarding reference to another token
)

// String returns the human-readable name of the mode.
func (m Mode) String() string {
	switch m {
	case Singleton:
		return "singleton"
	case Transient:
		return "transient"
	case Instance:
		return "instance"
	case Alias:
		return "alias"
	default:
		return "unknown"
	}
}

// Constructor builds an instance, resolving its own dependencies from the
// container it receives.
type Constructor func(c Container) (any, error)

// Container defines the token-resolution store consumed by the injector
// and lifecycle packages.
type Container interface {
	// RegisterSingleton registers a constructor whose result is cached
	// after the first resolve.
	RegisterSingleton(token Token, ctor Constructor) error

	// RegisterTransient registers a constructor invoked on every resolve.
	RegisterTransient(token Token, ctor Constructor) error

	// RegisterInstance registers a pre-created value.
	RegisterInstance(token Token, instance any) error

	// RegisterAlias registers token as a forwarding reference to target.
	RegisterAlias(token Token, target Token) error

	// IsRegistered reports whether the token has a registration.
	IsRegistered(token Token) bool

	// Resolve returns the value behind the token.
	Resolve(token Token) (any, error)

	// Registrations returns introspection info for every registration,
	// including whether each has been resolved. Used by the lifecycle
	// coordinator to collect teardown candidates without forcing
	// construction of new instances.
	Registrations() []RegistrationInfo
}

// RegistrationInfo describes a registration for introspection.
type RegistrationInfo struct {
	Token    Token
	Mode     Mode
	Resolved bool
}

// StandardContainer is the default Container implementation.
type StandardContainer struct {
	registrations map[Token]*registration
	mu            sync.RWMutex
}

type registration struct {
	token    Token
	mode     Mode
	ctor     Constructor
	target   Token
	instance any
	resolved bool
	mu       sync.RWMutex
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &StandardContainer{
		registrations: make(map[Token]*registration),
	}
}

func (c *StandardContainer) put(reg *registration) error {
	if reg.token.IsZero() {
		return errors.New(errors.ErrCodeInvalidInput, "cannot register a zero token")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.registrations[reg.token] = reg
	return nil
}

// RegisterSingleton registers a constructor whose result is cached after the
// first resolve.
func (c *StandardContainer) RegisterSingleton(token Token, ctor Constructor) error {
	if ctor == nil {
		return errors.Newf(errors.ErrCodeInvalidInput, "nil constructor for token %s", token)
	}
	return c.put(&registration{token: token, mode: Singleton, ctor: ctor})
}

// RegisterTransient registers a constructor invoked on every resolve.
func (c *StandardContainer) RegisterTransient(token Token, ctor Constructor) error {
	if ctor == nil {
		return errors.Newf(errors.ErrCodeInvalidInput, "nil constructor for token %s", token)
	}
	return c.put(&registration{token: token, mode: Transient, ctor: ctor})
}

// RegisterInstance registers a pre-created value.
func (c *StandardContainer) RegisterInstance(token Token, instance any) error {
	return c.put(&registration{token: token, mode: Instance, instance: instance, resolved: true})
}

// RegisterAlias registers token as a forwarding reference to target.
func (c *StandardContainer) RegisterAlias(token Token, target Token) error {
	if token == target {
		return errors.Newf(errors.ErrCodeInvalidInput, "token %s cannot alias itself", token)
	}
	return c.put(&registration{token: token, mode: Alias, target: target})
}

// IsRegistered reports whether the token has a registration.
func (c *StandardContainer) IsRegistered(token Token) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.registrations[token]
	return ok
}

// Resolve returns the value behind the token.
func (c *StandardContainer) Resolve(token Token) (any, error) {
	c.mu.RLock()
	reg, ok := c.registrations[token]
	c.mu.RUnlock()

	if !ok {
		return nil, errors.DependencyNotFound(token.Name())
	}

	switch reg.mode {
	case Instance:
		return reg.instance, nil
	case Alias:
		return c.Resolve(reg.target)
	case Transient:
		return reg.ctor(c)
	case Singleton:
		return c.resolveSingleton(reg)
	default:
		return nil, errors.Newf(errors.ErrCodeInternal, "unknown registration mode for token %s", token)
	}
}

func (c *StandardContainer) resolveSingleton(reg *registration) (any, error) {
	reg.mu.RLock()
	if reg.resolved {
		instance := reg.instance
		reg.mu.RUnlock()
		return instance, nil
	}
	reg.mu.RUnlock()

	reg.mu.Lock()
	defer reg.mu.Unlock()

	// Double-check after acquiring write lock
	if reg.resolved {
		return reg.instance, nil
	}

	instance, err := reg.ctor(c)
	if err != nil {
		return nil, fmt.Errorf("constructing %s: %w", reg.token, err)
	}

	reg.instance = instance
	reg.resolved = true
	return instance, nil
}

// Registrations returns introspection info for every registration.
func (c *StandardContainer) Registrations() []RegistrationInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]RegistrationInfo, 0, len(c.registrations))
	for _, reg := range c.registrations {
		reg.mu.RLock()
		result = append(result, RegistrationInfo{
			Token:    reg.token,
			Mode:     reg.mode,
			Resolved: reg.resolved,
		})
		reg.mu.RUnlock()
	}
	return result
}
