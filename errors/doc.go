// Package errors provides unified error handling for the zenject runtime.
// It implements structured error types with machine-readable codes so
// callers can distinguish registration failures, module-graph failures,
// and lifecycle failures without matching on message text.
package errors
