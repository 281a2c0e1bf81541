// Package alarm implements timed sleep on top of the kernel's hardware timer.
//
// An [Alarm] keeps the threads that called [Alarm.WaitUntil] ordered by wake
// deadline, and readies every thread whose deadline has passed on each timer
// interrupt.
package alarm
