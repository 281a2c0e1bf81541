// Package version reports the build version of kthreads.
package version
