package injector

import "github.com/maltyxx/zenject/di"

// Provider describes how to satisfy a token. The five kinds ([Component],
// [Class], [Value], [Factory], [Existing]) form a closed set: the
// registrar matches them exhaustively, so there is no "unsupported provider
// type" branch at runtime. Invalid field combinations (zero token, nil
// constructor) are rejected at registration with a PROVIDER_INVALID error.
type Provider interface {
	// Token returns the token this provider satisfies.
	Token() di.Token

	providerKind() string
}

// Component is a constructor provider: the token names the component itself
// and New builds it. Components are always singletons.
type Component struct {
	Provide di.Token
	New     di.Constructor
}

func (p Component) Token() di.Token      { return p.Provide }
func (p Component) providerKind() string { return "component" }

// Class binds a token to an implementation constructor. Singleton by
// default; set Transient for a fresh instance per resolve.
type Class struct {
	Provide   di.Token
	UseClass  di.Constructor
	Transient bool
}

func (p Class) Token() di.Token      { return p.Provide }
func (p Class) providerKind() string { return "class" }

// Value binds a token to a literal value. No hook is ever invoked on a
// value: it is stored, not constructed.
type Value struct {
	Provide  di.Token
	UseValue any
}

func (p Value) Token() di.Token      { return p.Provide }
func (p Value) providerKind() string { return "value" }

// Factory binds a token to the result of a one-time factory invocation.
// Deps are resolved from the container and passed positionally. The factory
// runs exactly once at registration; subsequent resolutions return the
// cached result. Factories model one-time expensive construction (opening a
// client), not lazy getters.
type Factory struct {
	Provide    di.Token
	UseFactory func(deps ...any) (any, error)
	Deps       []di.Token
}

func (p Factory) Token() di.Token      { return p.Provide }
func (p Factory) providerKind() string { return "factory" }

// Existing binds a token as a forwarding reference (alias) to another,
// already registered token. No new object is created.
type Existing struct {
	Provide     di.Token
	UseExisting di.Token
}

func (p Existing) Token() di.Token      { return p.Provide }
func (p Existing) providerKind() string { return "existing" }
