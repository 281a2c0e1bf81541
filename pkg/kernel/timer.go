package kernel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Timer is the machine's hardware timer. It keeps a monotonic tick count,
// and on every interrupt advances it and calls the registered handler.
type Timer struct {
	irq     *Interrupts
	handler func()
	now     atomic.Int64
	step    int64
	mu      sync.Mutex
}

func newTimer(irq *Interrupts, step int64) *Timer {
	return &Timer{irq: irq, step: step}
}

// Time returns the number of ticks since the kernel started.
func (t *Timer) Time() int64 {
	return t.now.Load()
}

// TicksPerInterrupt returns how far the timer advances on every interrupt.
func (t *Timer) TicksPerInterrupt() int64 {
	return t.step
}

// SetInterruptHandler registers the function called on every interrupt,
// replacing any previous handler.
func (t *Timer) SetInterruptHandler(h func()) {
	t.mu.Lock()
	t.handler = h
	t.mu.Unlock()
}

// Interrupt raises one timer interrupt. The tick count advances while
// interrupts are disabled; the handler then runs with interrupts enabled.
// Interrupts are serialized.
func (t *Timer) Interrupt() {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.irq.Disable()
	t.now.Add(t.step)
	t.irq.Restore(prev)

	if t.handler != nil {
		t.handler()
	}
}

// Run raises an interrupt every interval until ctx is done. It returns
// ctx's error.
func (t *Timer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.Interrupt()
		}
	}
}
