// Package kernel provides the thread substrate that the synchronization
// primitives in this module are built on.
//
// It models the pieces of a teaching kernel that the primitives consume
// through narrow interfaces: thread handles that can be blocked and readied,
// a mutual-exclusion [Lock], a FIFO [ThreadQueue] of blocked threads, an
// [Interrupts] controller and a monotonic [Timer]. Threads are goroutines
// owned by a [Kernel], which keeps a bounded registry of them keyed by
// generated identifiers.
//
// Contract violations, such as releasing a [Lock] that the caller does not
// hold, are programming errors and panic with one of the sentinel errors
// declared in this package.
package kernel
