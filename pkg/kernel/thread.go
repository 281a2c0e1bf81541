package kernel

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
)

// State is the scheduling state of a [Thread].
type State int32

const (
	StateNew State = iota
	StateReady
	StateRunning
	StateBlocked
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	case StateFinished:
		return "finished"
	}

	return fmt.Sprintf("State(%d)", int32(s))
}

// Thread is a handle to a kernel thread. Create threads with [Kernel.Fork],
// or use [Kernel.Main] for the thread that created the kernel.
//
// A blocked thread is resumed by exactly one call to [Thread.Ready]. A Ready
// that arrives before the matching [Thread.Block] is latched, so the thread
// does not sleep at all in that case.
type Thread struct {
	wake  chan struct{}
	done  chan struct{}
	name  string
	state atomic.Int32
	id    uuid.UUID
}

func newThread(id uuid.UUID, name string) *Thread {
	t := &Thread{
		id:   id,
		name: name,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	t.state.Store(int32(StateNew))

	return t
}

// ID returns the identifier the kernel registered the thread under.
func (t *Thread) ID() uuid.UUID {
	return t.id
}

// Name returns the thread name.
func (t *Thread) Name() string {
	return t.name
}

// State returns a snapshot of the thread's scheduling state.
func (t *Thread) State() State {
	return State(t.state.Load())
}

func (t *Thread) String() string {
	return t.name
}

// LogValue implements [slog.LogValuer].
func (t *Thread) LogValue() slog.Value {
	return slog.StringValue(t.name)
}

// Block suspends the calling thread until another thread calls
// [Thread.Ready] on it. It must only be called by t itself.
func (t *Thread) Block() {
	t.state.Store(int32(StateBlocked))
	<-t.wake
	t.state.Store(int32(StateRunning))
}

// Ready moves t to the ready set, resuming it if it is blocked. Readying a
// thread that already has a pending wake panics with [ErrDoubleReady].
func (t *Thread) Ready() {
	select {
	case t.wake <- struct{}{}:
		t.state.CompareAndSwap(int32(StateBlocked), int32(StateReady))
	default:
		panic(fmt.Errorf("%w: %s", ErrDoubleReady, t.name))
	}
}

// Yield gives up the processor to other runnable threads.
func (t *Thread) Yield() {
	runtime.Gosched()
}

// Join blocks until t has finished.
func (t *Thread) Join() {
	<-t.done
}

// JoinContext blocks until t has finished or ctx is done.
func (t *Thread) JoinContext(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("join %s: %w", t.name, ctx.Err())
	}
}

// Done returns a channel that is closed when t has finished.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

func (t *Thread) finish() {
	t.state.Store(int32(StateFinished))
	close(t.done)
}
