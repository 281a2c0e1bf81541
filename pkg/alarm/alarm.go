package alarm

import (
	"container/heap"
	"log/slog"
	"math"

	"github.com/MacroPower/kthreads/pkg/kernel"
)

// Alarm uses the hardware timer to provide preemption, and to let threads
// sleep until a certain time.
//
// A kernel should have at most one Alarm, since [New] takes over the timer's
// interrupt handler.
type Alarm struct {
	kernel   *kernel.Kernel
	sleeping sleepQueue
	seq      uint64
}

// New creates an [Alarm] and installs [Alarm.TimerInterrupt] as the
// interrupt handler of k's timer.
func New(k *kernel.Kernel) *Alarm {
	a := &Alarm{kernel: k}
	k.Timer().SetInterruptHandler(a.TimerInterrupt)

	return a
}

// TimerInterrupt is called by the timer on every interrupt. It yields the
// processor, then readies every sleeping thread whose deadline has passed,
// earliest deadline first.
//
// The yield runs on the goroutine delivering the interrupt. Kernel threads
// are goroutines preempted by the Go scheduler, so yielding here only gives
// runnable threads a chance to run before the due sleepers are readied.
func (a *Alarm) TimerInterrupt() {
	a.kernel.Yield()

	irq := a.kernel.Interrupts()
	prev := irq.Disable()
	defer irq.Restore(prev)

	now := a.kernel.Timer().Time()

	for a.sleeping.Len() > 0 && a.sleeping[0].deadline <= now {
		req, _ := heap.Pop(&a.sleeping).(*sleepRequest)

		slog.Debug("alarm wake",
			slog.Any("thread", req.thread),
			slog.Int64("deadline", req.deadline),
			slog.Int64("time", now),
		)

		req.thread.Ready()
	}
}

// WaitUntil puts t to sleep until the first timer interrupt at which at
// least ticks ticks have passed since the call. If ticks is not positive,
// WaitUntil returns immediately. Deadlines past the end of the clock
// saturate at [math.MaxInt64]. t must be the calling thread.
func (a *Alarm) WaitUntil(t *kernel.Thread, ticks int64) {
	if ticks <= 0 {
		return
	}

	irq := a.kernel.Interrupts()
	prev := irq.Disable()

	now := a.kernel.Timer().Time()

	deadline := int64(math.MaxInt64)
	if ticks <= math.MaxInt64-now {
		deadline = now + ticks
	}

	a.seq++
	heap.Push(&a.sleeping, &sleepRequest{
		thread:   t,
		deadline: deadline,
		seq:      a.seq,
	})

	slog.Debug("alarm sleep", slog.Any("thread", t), slog.Int64("deadline", deadline))

	irq.Restore(prev)

	t.Block()
}

// Sleeping returns the number of threads waiting for their deadline.
func (a *Alarm) Sleeping() int {
	irq := a.kernel.Interrupts()
	prev := irq.Disable()
	defer irq.Restore(prev)

	return a.sleeping.Len()
}
