// Package log creates [slog.Handler]s backed by charmbracelet/log.
package log
