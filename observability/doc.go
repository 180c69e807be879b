// Package observability provides OpenTelemetry tracing and metrics for the
// zenject runtime.
//
// The module loader emits a span per module load and the lifecycle
// coordinator records teardown outcomes, so a slow post-construct hook or a
// hanging teardown is visible in traces without any instrumentation in user
// code. All helpers are no-ops until InitTracer/InitMeter install real
// providers, which keeps the runtime dependency-free at test time.
package observability
