package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MacroPower/kthreads/pkg/kernel"
	"github.com/MacroPower/kthreads/pkg/selftest"
)

var (
	// ErrReadConfig indicates the configuration file could not be read.
	ErrReadConfig = errors.New("read config")

	// ErrInvalidConfig indicates the configuration is malformed or out of
	// range.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is the kthreads configuration.
type Config struct {
	Kernel       kernel.Config `yaml:"kernel"`
	TickInterval time.Duration `yaml:"tickInterval"`
	Timeout      time.Duration `yaml:"timeout"`
	Parallel     int           `yaml:"parallel"`
}

// Default returns the default [Config].
func Default() Config {
	return Config{
		Kernel:       kernel.DefaultConfig(),
		TickInterval: selftest.DefaultTickInterval,
		Timeout:      selftest.DefaultTimeout,
	}
}

// Load reads a YAML configuration file. Fields missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided path.
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrReadConfig, err)
	}

	return Parse(data)
}

// Parse decodes a YAML configuration. Unknown fields are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err := dec.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that every field is in range.
func (c Config) Validate() error {
	switch {
	case c.Kernel.MaxThreads < 0:
		return fmt.Errorf("%w: kernel.maxThreads must not be negative", ErrInvalidConfig)
	case c.Kernel.TicksPerInterrupt < 0:
		return fmt.Errorf("%w: kernel.ticksPerInterrupt must not be negative", ErrInvalidConfig)
	case c.TickInterval < 0:
		return fmt.Errorf("%w: tickInterval must not be negative", ErrInvalidConfig)
	case c.Timeout < 0:
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	case c.Parallel < 0:
		return fmt.Errorf("%w: parallel must not be negative", ErrInvalidConfig)
	}

	return nil
}

// Options converts c into [selftest.Options].
func (c Config) Options() selftest.Options {
	return selftest.Options{
		Kernel:       c.Kernel,
		TickInterval: c.TickInterval,
		Timeout:      c.Timeout,
		Parallel:     c.Parallel,
	}
}
