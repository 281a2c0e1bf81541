// Package selftest runs scenario suites that exercise the kernel
// synchronization primitives end to end.
//
// Each [Suite] runs on a fresh [kernel.Kernel] with an [alarm.Alarm]
// installed and the timer driven from the wall clock. A [Runner] runs a
// selection of suites concurrently and collects their outcomes into a
// [Report].
package selftest
