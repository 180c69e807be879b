package injector

import (
	"fmt"

	"github.com/maltyxx/zenject/di"
	"github.com/maltyxx/zenject/errors"
	"github.com/maltyxx/zenject/validation"
)

// Module is a named bundle of imports, own providers, and exported
// providers. The name is unique across the graph and is the memoization
// key: a module initializes at most once per loader, no matter how many
// importers reference it.
//
// A dynamic module is simply a *Module built at call time, typically by a
// function taking parameters, carrying a stable name:
//
//	func DatabaseModule(dsn string) *injector.Module {
//	    return &injector.Module{
//	        Name:      "database",
//	        Providers: []injector.Provider{...},
//	    }
//	}
type Module struct {
	// Name uniquely identifies the module.
	Name string

	// Imports are modules loaded before this module's own providers.
	// Each import's exported providers are copied into this module's
	// resolution scope once the import has fully loaded.
	Imports []*Module

	// Providers are registered directly on this module, in declaration
	// order, after all imports have settled.
	Providers []Provider

	// Exports are the providers this module makes visible to importers.
	Exports []Provider

	// New optionally constructs the module's own component. When set, the
	// loader registers it as a singleton under the module-name token and
	// runs its post-construct hook as the final load step.
	New di.Constructor
}

// Token returns the token under which the module's own component is
// registered.
func (m *Module) Token() di.Token {
	return di.NewToken("module:" + m.Name)
}

// validate checks the descriptor's shape before any load work begins.
func (m *Module) validate() error {
	if m == nil {
		return errors.New(errors.ErrCodeModuleInvalid, "nil module descriptor")
	}

	v := validation.New().Required("name", m.Name)
	for i, imp := range m.Imports {
		v.Custom(imp != nil, fmt.Sprintf("imports[%d]", i), "is nil")
	}
	if err := v.ValidateAs(errors.ErrCodeModuleInvalid); err != nil {
		return err
	}
	return nil
}
