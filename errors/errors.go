package errors

import (
	"errors"
	"fmt"
)

// Error is the unified runtime error type.
type Error struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// --- Common Error Constructors ---

// ProviderRegistration creates an Error for a provider descriptor that cannot
// be registered. The descriptor is serialized into the details for diagnostics.
func ProviderRegistration(descriptor any, reason string) *Error {
	return &Error{
		Code:    ErrCodeProviderInvalid,
		Message: fmt.Sprintf("cannot register provider: %s", reason),
		Details: map[string]any{"descriptor": fmt.Sprintf("%+v", descriptor)},
	}
}

// DependencyNotFound creates an Error for a token with no registration.
func DependencyNotFound(token string) *Error {
	return &Error{
		Code:    ErrCodeDependencyNotFound,
		Message: fmt.Sprintf("dependency not registered: %s", token),
		Details: map[string]any{"token": token},
	}
}

// ModuleCycle creates an Error for a module import cycle detected mid-load.
func ModuleCycle(name string) *Error {
	return &Error{
		Code:    ErrCodeModuleCycle,
		Message: fmt.Sprintf("module %q is already loading: import cycle", name),
		Details: map[string]any{"module": name},
	}
}

// ModuleLoad creates an Error for a module whose load did not complete.
func ModuleLoad(name string, cause error) *Error {
	return &Error{
		Code:    ErrCodeModuleLoadFailed,
		Message: fmt.Sprintf("failed to load module %q", name),
		Details: map[string]any{"module": name},
		Cause:   cause,
	}
}

// PluginNotRegistered creates an Error for a load request naming an unknown plugin.
func PluginNotRegistered(name string) *Error {
	return &Error{
		Code:    ErrCodePluginNotRegistered,
		Message: fmt.Sprintf("plugin not registered: %s", name),
		Details: map[string]any{"plugin": name},
	}
}

// InitFailed creates an Error for a post-construct hook failure.
func InitFailed(token string, cause error) *Error {
	return &Error{
		Code:    ErrCodeInitFailed,
		Message: fmt.Sprintf("post-construct hook failed for %s", token),
		Details: map[string]any{"token": token},
		Cause:   cause,
	}
}

// --- Inspection helpers ---

// CodeOf extracts the ErrorCode from err, walking the unwrap chain.
// Returns ErrCodeInternal when err carries no code.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err (or any error it wraps) carries the given code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Unwrap()
	}
	return false
}

// Is reports whether any error in err's chain matches target.
// It delegates to the standard library so callers need only one import.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }
