// Package tracing provides lightweight spans that report their duration and
// baggage through [log/slog].
package tracing
