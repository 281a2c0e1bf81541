// Package syncs provides synchronization primitives for kernel threads.
//
// [Condition] is a condition variable built directly on a [kernel.Lock] and a
// FIFO [kernel.ThreadQueue]. The higher-level primitives, the [Communicator]
// rendezvous channel and the [Composite] counting synchronizer, are built
// only from a lock and conditions.
//
// Every primitive owns exactly one lock and never blocks while holding a
// lock of another primitive.
package syncs
