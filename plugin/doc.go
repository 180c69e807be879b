// Package plugin layers named, lazily-loaded module bundles on top of the
// injector. A plugin is registered under a name with a loader function that
// produces its modules on demand; loading resolves the function once and
// hands the entry module to the injector's loader.
package plugin
