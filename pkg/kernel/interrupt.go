package kernel

import (
	"sync"
	"sync/atomic"
)

// Status is the interrupt state returned by [Interrupts.Disable], to be
// passed back to [Interrupts.Restore].
type Status bool

const (
	Enabled  Status = true
	Disabled Status = false
)

// Interrupts is the machine's interrupt controller. While interrupts are
// disabled no timer interrupt handler runs, and no other thread can disable
// them.
//
// Disable is not reentrant: a thread that has disabled interrupts must
// restore them before disabling them again.
type Interrupts struct {
	mu       sync.Mutex
	disabled atomic.Bool
}

// Disable disables interrupts and returns the previous status.
func (i *Interrupts) Disable() Status {
	i.mu.Lock()
	i.disabled.Store(true)

	return Enabled
}

// Restore restores the status returned by a previous [Interrupts.Disable].
func (i *Interrupts) Restore(s Status) {
	if s != Enabled {
		return
	}

	i.disabled.Store(false)
	i.mu.Unlock()
}

// Enabled reports whether interrupts are currently enabled.
func (i *Interrupts) Enabled() bool {
	return !i.disabled.Load()
}
