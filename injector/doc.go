// Package injector turns a declarative graph of modules into a live object
// graph.
//
// A [Module] bundles providers, imports of other modules, and re-exports.
// The [Loader] walks a module's imports depth-first, loading each imported
// module exactly once and copying its declared exports into the importer's
// resolution scope, then registers the module's own providers through the
// [Registrar]. Providers are a closed set of descriptor kinds: [Component],
// [Class], [Value], [Factory], and [Existing].
//
//	cfg := &injector.Module{
//	    Name:      "config",
//	    Providers: []injector.Provider{injector.Value{Provide: apiKey, UseValue: "k1"}},
//	    Exports:   []injector.Provider{injector.Value{Provide: apiKey, UseValue: "k1"}},
//	}
//	app := &injector.Module{Name: "app", Imports: []*injector.Module{cfg}}
//	loader := injector.NewLoader(container)
//	err := loader.Load(ctx, app)
package injector
