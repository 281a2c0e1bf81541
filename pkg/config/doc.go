// Package config loads the configuration file used by the kthreads CLI.
package config
