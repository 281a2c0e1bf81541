package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/MacroPower/kthreads/internal/cli"
)

const (
	cmdName = "kthreads"

	shortDesc = "Thread synchronization primitives on a simulated kernel."
	longDesc  = `kthreads runs thread synchronization primitives on a simulated kernel.

The kernel schedules threads as goroutines and drives a tick clock from a
timer interrupt. On top of it sit an alarm clock, a condition variable,
a rendezvous communicator, and a two-to-one composite synchronizer that
bonds water molecules.
`
)

func main() {
	cmd := cli.NewRootCmd(cmdName, shortDesc, longDesc)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimLeft(err.Error(), "\n"))
		os.Exit(1)
	}
}
