package di

import "fmt"

// MustResolve resolves a token with type safety, panics on error.
//
// Example:
//
//	cfg := di.MustResolve[*Config](c, tokens.Config)
func MustResolve[T any](c Container, token Token) T {
	instance, err := c.Resolve(token)
	if err != nil {
		panic(fmt.Sprintf("di: failed to resolve %s: %v", token, err))
	}
	result, ok := instance.(T)
	if !ok {
		var zero T
		panic(fmt.Sprintf("di: token %s is %T, expected %T", token, instance, zero))
	}
	return result
}

// Resolve resolves a token with type safety, returns error on failure.
//
// Example:
//
//	cfg, err := di.Resolve[*Config](c, tokens.Config)
func Resolve[T any](c Container, token Token) (T, error) {
	var zero T
	instance, err := c.Resolve(token)
	if err != nil {
		return zero, fmt.Errorf("di: failed to resolve %s: %w", token, err)
	}
	result, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("di: token %s is %T, expected %T", token, instance, zero)
	}
	return result, nil
}

// TryResolve resolves a token, returns zero value and false if not found.
// Use this when a dependency is optional.
func TryResolve[T any](c Container, token Token) (T, bool) {
	var zero T
	instance, err := c.Resolve(token)
	if err != nil {
		return zero, false
	}
	result, ok := instance.(T)
	if !ok {
		return zero, false
	}
	return result, true
}
