// Package telemetry holds the logging, metrics and tracing hooks used by the
// jwks cache, with adapters for logrus, zap, zerolog, Prometheus and
// OpenTelemetry.
package telemetry
