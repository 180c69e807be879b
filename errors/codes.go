package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Registration errors
const (
	// ErrCodeProviderInvalid indicates a provider descriptor that cannot be registered.
	ErrCodeProviderInvalid ErrorCode = "PROVIDER_INVALID"
	// ErrCodeDependencyNotFound indicates a token with no registration.
	ErrCodeDependencyNotFound ErrorCode = "DEPENDENCY_NOT_FOUND"
	// ErrCodeAlreadyRegistered indicates a conflicting registration for a token.
	ErrCodeAlreadyRegistered ErrorCode = "ALREADY_REGISTERED"
)

// Module graph errors
const (
	// ErrCodeModuleCycle indicates a module import cycle detected mid-load.
	ErrCodeModuleCycle ErrorCode = "MODULE_CYCLE"
	// ErrCodeModuleInvalid indicates a module descriptor that fails validation.
	ErrCodeModuleInvalid ErrorCode = "MODULE_INVALID"
	// ErrCodeModuleLoadFailed indicates a module whose load did not complete.
	ErrCodeModuleLoadFailed ErrorCode = "MODULE_LOAD_FAILED"
)

// Plugin errors
const (
	// ErrCodePluginNotRegistered indicates a load request for an unknown plugin.
	ErrCodePluginNotRegistered ErrorCode = "PLUGIN_NOT_REGISTERED"
	// ErrCodePluginLoadFailed indicates a plugin loader that returned no modules or failed.
	ErrCodePluginLoadFailed ErrorCode = "PLUGIN_LOAD_FAILED"
)

// Lifecycle errors
const (
	// ErrCodeInitFailed indicates a post-construct hook failure.
	ErrCodeInitFailed ErrorCode = "INIT_FAILED"
	// ErrCodeShutdownFailed indicates teardown completed with hook failures.
	ErrCodeShutdownFailed ErrorCode = "SHUTDOWN_FAILED"
)

// Generic errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInternal indicates an internal runtime error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)
