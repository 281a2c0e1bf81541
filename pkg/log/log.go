package log

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

const (
	TextFormat   = "text"
	JSONFormat   = "json"
	LogfmtFormat = "logfmt"
)

var (
	ErrInvalidLevel  = errors.New("invalid log level")
	ErrInvalidFormat = errors.New("invalid log format")
)

// CreateHandlerWithStrings creates a [slog.Handler] writing to w, parsing the
// level and format from strings.
func CreateHandlerWithStrings(w io.Writer, level, format string) (slog.Handler, error) {
	l, err := GetLevel(level)
	if err != nil {
		return nil, err
	}

	f, err := GetFormatter(format)
	if err != nil {
		return nil, err
	}

	return CreateHandler(w, l, f), nil
}

// CreateHandler creates a [slog.Handler] writing to w.
func CreateHandler(w io.Writer, level slog.Level, formatter charmlog.Formatter) slog.Handler {
	return charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		Level:           charmlog.Level(level),
		Formatter:       formatter,
	})
}

// GetLevel parses a log level. Level names are case-insensitive.
func GetLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "error":
		return slog.LevelError, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
}

// GetFormatter parses a log format.
func GetFormatter(format string) (charmlog.Formatter, error) {
	switch strings.ToLower(format) {
	case TextFormat, "":
		return charmlog.TextFormatter, nil
	case JSONFormat:
		return charmlog.JSONFormatter, nil
	case LogfmtFormat:
		return charmlog.LogfmtFormatter, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
}
