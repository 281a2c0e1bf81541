package kernel

import (
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	// DefaultMaxThreads is the default capacity of the thread registry.
	DefaultMaxThreads = 1024

	// DefaultTicksPerInterrupt is the default number of ticks the timer
	// advances on every interrupt.
	DefaultTicksPerInterrupt = 500
)

// Config configures a [Kernel].
type Config struct {
	// MaxThreads bounds the number of live threads, including the main
	// thread.
	MaxThreads int `yaml:"maxThreads"`

	// TicksPerInterrupt is how far the timer advances on every interrupt.
	TicksPerInterrupt int64 `yaml:"ticksPerInterrupt"`
}

// DefaultConfig returns the default [Config].
func DefaultConfig() Config {
	return Config{
		MaxThreads:        DefaultMaxThreads,
		TicksPerInterrupt: DefaultTicksPerInterrupt,
	}
}

// Kernel owns the threads, interrupt controller and timer of one simulated
// machine.
type Kernel struct {
	interrupts *Interrupts
	timer      *Timer
	main       *Thread
	threads    map[uuid.UUID]*Thread
	cfg        Config
	mu         sync.Mutex
}

// New creates a new [Kernel]. The goroutine that calls New becomes the
// kernel's main thread, see [Kernel.Main]. Zero fields in cfg take their
// default values.
func New(cfg Config) *Kernel {
	def := DefaultConfig()
	if cfg.MaxThreads <= 0 {
		cfg.MaxThreads = def.MaxThreads
	}

	if cfg.TicksPerInterrupt <= 0 {
		cfg.TicksPerInterrupt = def.TicksPerInterrupt
	}

	irq := &Interrupts{}

	k := &Kernel{
		cfg:        cfg,
		interrupts: irq,
		timer:      newTimer(irq, cfg.TicksPerInterrupt),
		threads:    make(map[uuid.UUID]*Thread),
	}

	k.main = newThread(uuid.New(), "main")
	k.main.state.Store(int32(StateRunning))
	k.threads[k.main.id] = k.main

	return k
}

// Main returns the thread that created the kernel.
func (k *Kernel) Main() *Thread {
	return k.main
}

// Interrupts returns the kernel's interrupt controller.
func (k *Kernel) Interrupts() *Interrupts {
	return k.interrupts
}

// Timer returns the kernel's hardware timer.
func (k *Kernel) Timer() *Timer {
	return k.timer
}

// Fork creates a new thread named name that runs fn, and makes it ready.
// The thread is removed from the registry when fn returns. If the registry
// is full, Fork returns an error wrapping [ErrTooManyThreads].
func (k *Kernel) Fork(name string, fn func(t *Thread)) (*Thread, error) {
	k.mu.Lock()

	if len(k.threads) >= k.cfg.MaxThreads {
		k.mu.Unlock()

		return nil, fmt.Errorf("fork %q: %w (limit %d)", name, ErrTooManyThreads, k.cfg.MaxThreads)
	}

	t := newThread(uuid.New(), name)
	k.threads[t.id] = t
	k.mu.Unlock()

	t.state.Store(int32(StateReady))

	slog.Debug("fork thread", slog.Any("thread", t), slog.String("id", t.id.String()))

	go func() {
		defer k.exit(t)

		t.state.Store(int32(StateRunning))
		fn(t)
	}()

	return t, nil
}

func (k *Kernel) exit(t *Thread) {
	k.mu.Lock()
	delete(k.threads, t.id)
	k.mu.Unlock()

	slog.Debug("thread finished", slog.Any("thread", t))

	t.finish()
}

// Thread looks up a live thread by identifier.
func (k *Kernel) Thread(id uuid.UUID) (*Thread, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()

	t, ok := k.threads[id]

	return t, ok
}

// Threads returns the live threads, sorted by name.
func (k *Kernel) Threads() []*Thread {
	k.mu.Lock()
	threads := make([]*Thread, 0, len(k.threads))
	for _, t := range k.threads {
		threads = append(threads, t)
	}
	k.mu.Unlock()

	slices.SortFunc(threads, func(a, b *Thread) int {
		return strings.Compare(a.name, b.name)
	})

	return threads
}

// Yield lets other runnable threads run.
func (k *Kernel) Yield() {
	runtime.Gosched()
}
