package syncs

import (
	"log/slog"

	"github.com/MacroPower/kthreads/pkg/kernel"
)

// Communicator lets threads synchronously exchange values of type T.
//
// Any number of threads may be waiting to speak or to listen, but each
// spoken value is received by exactly one listener. At most one value is in
// transit at a time. The zero value is not usable; create instances with
// [NewCommunicator].
type Communicator[T any] struct {
	lock   *kernel.Lock
	speak  *Condition
	listen *Condition

	message T

	speakersWaiting  int
	listenersWaiting int
	speakersActive   int
	listenersActive  int
	pending          bool
}

// NewCommunicator creates a new [Communicator].
func NewCommunicator[T any]() *Communicator[T] {
	lock := kernel.NewLock()

	return &Communicator[T]{
		lock:   lock,
		speak:  NewCondition(lock),
		listen: NewCondition(lock),
	}
}

// Speak waits until a listener is available, then transfers v to it. Speak
// does not return until the value has been handed off.
func (c *Communicator[T]) Speak(t *kernel.Thread, v T) {
	c.lock.Acquire(t)

	c.speakersWaiting++
	for c.listenersWaiting == 0 || c.handoff() || c.pending {
		c.speak.Sleep(t)
	}

	c.speakersWaiting--
	c.speakersActive++
	c.lock.Release(t)

	// Only one speaker is active, and no listener reads the slot until
	// pending is set.
	c.message = v

	c.lock.Acquire(t)
	defer c.lock.Release(t)

	c.pending = true
	c.speakersActive--

	slog.Debug("communicator spoke", slog.Any("thread", t))

	c.listen.Wake(t)
}

// Listen waits for a speaker and returns the value it spoke.
func (c *Communicator[T]) Listen(t *kernel.Thread) T {
	c.lock.Acquire(t)

	c.listenersWaiting++
	if c.speakersWaiting > 0 && !c.handoff() {
		c.speak.Wake(t)
	}

	for !c.pending || c.listenersActive > 0 {
		c.listen.Sleep(t)
	}

	c.listenersWaiting--
	c.listenersActive++
	c.lock.Release(t)

	v := c.message

	c.lock.Acquire(t)
	defer c.lock.Release(t)

	var zero T
	c.message = zero
	c.pending = false
	c.listenersActive--

	slog.Debug("communicator listened", slog.Any("thread", t))

	if c.speakersWaiting > 0 {
		c.speak.Wake(t)
	}

	return v
}

// handoff reports whether a speaker or listener is between its two critical
// sections.
func (c *Communicator[T]) handoff() bool {
	return c.speakersActive > 0 || c.listenersActive > 0
}
