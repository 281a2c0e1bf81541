package kernel

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Lock is a mutual-exclusion lock that records its holder, so that
// lock-protected operations can check that the calling thread holds it.
// The zero value is an unlocked Lock.
type Lock struct {
	holder atomic.Pointer[Thread]
	mu     sync.Mutex
}

// NewLock creates a new [Lock].
func NewLock() *Lock {
	return &Lock{}
}

// Acquire blocks until t holds the lock. Acquiring a lock that t already
// holds panics with [ErrRecursiveAcquire].
func (l *Lock) Acquire(t *Thread) {
	if l.holder.Load() == t {
		panic(fmt.Errorf("%w: %s", ErrRecursiveAcquire, t.name))
	}

	l.mu.Lock()
	l.holder.Store(t)
}

// Release releases the lock. It panics with [ErrLockNotHeld] if t is not
// the holder.
func (l *Lock) Release(t *Thread) {
	if !l.IsHeldBy(t) {
		panic(fmt.Errorf("%w: release by %s", ErrLockNotHeld, t.name))
	}

	l.holder.Store(nil)
	l.mu.Unlock()
}

// IsHeldBy reports whether t holds the lock.
func (l *Lock) IsHeldBy(t *Thread) bool {
	return t != nil && l.holder.Load() == t
}
