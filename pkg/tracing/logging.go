package tracing

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// ErrorKey is the baggage key that marks a span as failed.
const ErrorKey = "error"

var (
	_ Tracer = (*LoggingTracer)(nil)
	_ Span   = (*loggingSpan)(nil)
)

// LoggingTracer is a [Tracer] that logs each span once, when it finishes.
// Spans log at the tracer's level, or at [slog.LevelError] if they carry an
// [ErrorKey] baggage item.
type LoggingTracer struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLoggingTracer creates a new [LoggingTracer] that logs to logger at level.
func NewLoggingTracer(logger *slog.Logger, level slog.Level) *LoggingTracer {
	return &LoggingTracer{
		logger: logger,
		level:  level,
	}
}

//nolint:ireturn
func (l *LoggingTracer) StartSpan(operationName string) Span {
	return &loggingSpan{
		tracer: l,
		name:   operationName,
		start:  time.Now(),
	}
}

type loggingSpan struct {
	start    time.Time
	tracer   *LoggingTracer
	name     string
	baggage  []slog.Attr
	mu       sync.Mutex
	finished bool
}

// Finish logs the span. Later calls do nothing.
func (s *loggingSpan) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return
	}

	s.finished = true

	level := s.tracer.level
	if slices.ContainsFunc(s.baggage, func(a slog.Attr) bool { return a.Key == ErrorKey }) {
		level = max(level, slog.LevelError)
	}

	attrs := make([]slog.Attr, 0, len(s.baggage)+2)
	attrs = append(attrs, slog.String("span", s.name))
	attrs = append(attrs, s.baggage...)
	attrs = append(attrs, slog.Duration("duration", time.Since(s.start)))

	s.tracer.logger.LogAttrs(context.Background(), level, "span finished", attrs...)
}

// SetBaggageItem records key, replacing any earlier value while keeping its
// position.
func (s *loggingSpan) SetBaggageItem(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attr := slog.Any(key, value)

	i := slices.IndexFunc(s.baggage, func(a slog.Attr) bool { return a.Key == key })
	if i >= 0 {
		s.baggage[i] = attr

		return
	}

	s.baggage = append(s.baggage, attr)
}
