package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MacroPower/kthreads/pkg/config"
	"github.com/MacroPower/kthreads/pkg/kernel"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		want    config.Config
		wantErr error
	}{
		"empty": {
			input: "",
			want:  config.Default(),
		},
		"full": {
			input: `
kernel:
  maxThreads: 64
  ticksPerInterrupt: 100
tickInterval: 1ms
timeout: 10s
parallel: 2
`,
			want: config.Config{
				Kernel:       kernel.Config{MaxThreads: 64, TicksPerInterrupt: 100},
				TickInterval: time.Millisecond,
				Timeout:      10 * time.Second,
				Parallel:     2,
			},
		},
		"partial keeps defaults": {
			input: "parallel: 3\n",
			want: func() config.Config {
				c := config.Default()
				c.Parallel = 3

				return c
			}(),
		},
		"unknown field": {
			input:   "threads: 3\n",
			wantErr: config.ErrInvalidConfig,
		},
		"bad duration": {
			input:   "timeout: soon\n",
			wantErr: config.ErrInvalidConfig,
		},
		"negative": {
			input:   "kernel:\n  maxThreads: -1\n",
			wantErr: config.ErrInvalidConfig,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := config.Parse([]byte(tc.input))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "kthreads.yaml")
	require.NoError(t, os.WriteFile(path, []byte("parallel: 1\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Parallel)
	assert.Equal(t, 1, cfg.Options().Parallel)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, config.ErrReadConfig)
}
