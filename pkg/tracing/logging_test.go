package tracing_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MacroPower/kthreads/pkg/tracing"
)

func TestLoggingTracer(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		baggage   map[string]any
		level     slog.Level
		wantLevel string
		wantEmpty bool
	}{
		"info": {
			level:     slog.LevelInfo,
			baggage:   map[string]any{"suite": "alarm"},
			wantLevel: "INFO",
		},
		"error escalates": {
			level:     slog.LevelDebug,
			baggage:   map[string]any{"suite": "alarm", tracing.ErrorKey: errors.New("boom").Error()},
			wantLevel: "ERROR",
		},
		"below handler level": {
			level:     slog.LevelDebug,
			baggage:   map[string]any{"suite": "alarm"},
			wantEmpty: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			buf := &bytes.Buffer{}
			logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

			span := tracing.NewLoggingTracer(logger, tc.level).StartSpan("suite")
			for k, v := range tc.baggage {
				span.SetBaggageItem(k, v)
			}

			span.Finish()

			if tc.wantEmpty {
				assert.Empty(t, buf.String())

				return
			}

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

			assert.Equal(t, "span finished", entry["msg"])
			assert.Equal(t, tc.wantLevel, entry["level"])
			assert.Equal(t, "suite", entry["span"])
			assert.Contains(t, entry, "duration")

			for k, v := range tc.baggage {
				assert.Equal(t, v, entry[k])
			}
		})
	}
}

func TestLoggingTracer_Baggage(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))

	span := tracing.NewLoggingTracer(logger, slog.LevelInfo).StartSpan("suite")
	span.SetBaggageItem("suite", "alarm")
	span.SetBaggageItem("ticks", 100)
	span.SetBaggageItem("suite", "condition")

	span.Finish()
	span.Finish()

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "span finished"))
	assert.NotContains(t, out, "suite=alarm")
	assert.Less(t, strings.Index(out, "suite=condition"), strings.Index(out, "ticks=100"))
}

func TestNopTracer(t *testing.T) {
	t.Parallel()

	span := tracing.NopTracer{}.StartSpan("nothing")
	span.SetBaggageItem("k", "v")
	span.Finish()
}
