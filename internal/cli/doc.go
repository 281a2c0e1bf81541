// Package cli implements the kthreads command line interface.
package cli
