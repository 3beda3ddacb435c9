// Package telemetry wires optional OpenTelemetry tracing and metrics for the
// telepathy service. Both providers export over OTLP/HTTP and are installed
// as the global otel providers; when no endpoint is configured the service
// never calls Init and every instrument in this package degrades to a no-op.
package telemetry
