package syncs

import (
	"fmt"
	"log/slog"

	"github.com/MacroPower/kthreads/pkg/kernel"
)

// Condition is a condition variable. The calling thread must hold the
// associated lock whenever it calls [Condition.Sleep], [Condition.Wake] or
// [Condition.WakeAll]; otherwise these methods panic with
// [kernel.ErrLockNotHeld].
//
// Waiters are woken in FIFO order. Like all Mesa-style condition variables,
// callers should re-check their predicate in a loop after Sleep returns.
type Condition struct {
	lock      *kernel.Lock
	waitQueue kernel.ThreadQueue
}

// NewCondition creates a [Condition] associated with lock.
func NewCondition(lock *kernel.Lock) *Condition {
	return &Condition{lock: lock}
}

// Sleep atomically releases the lock and suspends t until another thread
// wakes it with [Condition.Wake] or [Condition.WakeAll]. The lock is held
// again when Sleep returns.
func (c *Condition) Sleep(t *kernel.Thread) {
	c.mustHold(t, "sleep")

	// Enqueued before the lock is released: a waker must hold the lock, so it
	// either sees t on the queue or runs before t decided to sleep.
	c.waitQueue.WaitForAccess(t)
	c.lock.Release(t)

	slog.Debug("condition sleep", slog.Any("thread", t))

	t.Block()

	c.lock.Acquire(t)
}

// Wake wakes the thread that has waited longest, if any.
func (c *Condition) Wake(t *kernel.Thread) {
	c.mustHold(t, "wake")

	next := c.waitQueue.NextThread()
	if next == nil {
		return
	}

	slog.Debug("condition wake",
		slog.Any("thread", t),
		slog.Any("woken", next),
		slog.Int("waiters", c.waitQueue.Len()),
	)

	next.Ready()
}

// WakeAll wakes every thread waiting when it is called, oldest first.
func (c *Condition) WakeAll(t *kernel.Thread) {
	c.mustHold(t, "wake all")

	for range c.waitQueue.Len() {
		c.Wake(t)
	}
}

// Waiters returns the number of threads sleeping on c. It may be called
// without holding the lock, in which case the result is only a snapshot.
func (c *Condition) Waiters() int {
	return c.waitQueue.Len()
}

func (c *Condition) mustHold(t *kernel.Thread, op string) {
	if !c.lock.IsHeldBy(t) {
		panic(fmt.Errorf("%w: %s by %s", kernel.ErrLockNotHeld, op, t))
	}
}
