package kernel

import "errors"

var (
	// ErrLockNotHeld indicates a thread used a lock-protected operation
	// without holding the lock.
	ErrLockNotHeld = errors.New("lock not held by current thread")

	// ErrRecursiveAcquire indicates a thread tried to acquire a lock it
	// already holds.
	ErrRecursiveAcquire = errors.New("recursive lock acquisition")

	// ErrDoubleReady indicates a thread was readied twice without blocking
	// in between.
	ErrDoubleReady = errors.New("thread readied twice")

	// ErrTooManyThreads indicates the kernel thread registry is full.
	ErrTooManyThreads = errors.New("too many threads")
)
