package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/MacroPower/kthreads/pkg/log"
)

var ErrLogHandlerFailed = errors.New("log handler failed")

// NewRootCmd returns the kthreads root command.
func NewRootCmd(name, shortDesc, longDesc string) *cobra.Command {
	args := NewRootArgs()

	cmd := &cobra.Command{
		Use:           name,
		Short:         shortDesc,
		Long:          longDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       GetVersionString(),
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(args.logLevel, "log_level", "warn", "Set the log level (debug, info, warn, error)")
	flags.StringVar(args.logFormat, "log_format", "text", "Set the log format (text, logfmt, json)")
	flags.StringVar(args.cpuProfile, "cpuprofile", "", "Write a CPU profile to this file")
	flags.StringVar(args.blockProfile, "blockprofile", "", "Write a block profile to this file")
	flags.IntVar(args.blockProfileRate, "blockprofile_rate", 1, "Block profiling rate as a fraction")
	flags.StringVar(args.mutexProfile, "mutexprofile", "", "Write a mutex profile to this file")
	flags.IntVar(args.mutexProfileRate, "mutexprofile_rate", 1, "Mutex profiling rate as a fraction")

	for _, f := range []string{"cpuprofile", "blockprofile", "mutexprofile"} {
		if err := cmd.MarkPersistentFlagFilename(f); err != nil {
			panic(err)
		}
	}

	cmd.PersistentPreRunE = func(cc *cobra.Command, _ []string) error {
		h, err := log.CreateHandlerWithStrings(cc.ErrOrStderr(), args.GetLogLevel(), args.GetLogFormat())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLogHandlerFailed, err)
		}

		slog.SetDefault(slog.New(h))

		if args.GetCPUProfile() != "" {
			f, err := os.Create(args.GetCPUProfile())
			if err != nil {
				return fmt.Errorf("failed to create CPU profile: %w", err)
			}

			err = pprof.StartCPUProfile(f)
			if err != nil {
				must(f.Close())

				return fmt.Errorf("failed to start CPU profile: %w", err)
			}
		}

		if args.GetBlockProfile() != "" {
			runtime.SetBlockProfileRate(args.GetBlockProfileRate())
		}

		if args.GetMutexProfile() != "" {
			runtime.SetMutexProfileFraction(args.GetMutexProfileRate())
		}

		slog.Debug("ready to go")

		return nil
	}

	cmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		slog.Debug("shutting down")

		if args.GetCPUProfile() != "" {
			pprof.StopCPUProfile()
		}

		var merr *multierror.Error

		if p := args.GetBlockProfile(); p != "" {
			merr = multierror.Append(merr, writeProfile("block", p))
		}

		if p := args.GetMutexProfile(); p != "" {
			merr = multierror.Append(merr, writeProfile("mutex", p))
		}

		return merr.ErrorOrNil()
	}

	cmd.AddCommand(NewSelftestCmd())
	cmd.AddCommand(NewSuitesCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

func writeProfile(name, path string) error {
	f, err := os.Create(path) //nolint:gosec // User-provided path.
	if err != nil {
		return fmt.Errorf("failed to create %s profile: %w", name, err)
	}

	err = pprof.Lookup(name).WriteTo(f, 0)
	if err != nil {
		must(f.Close())

		return fmt.Errorf("failed to write %s profile: %w", name, err)
	}

	return f.Close()
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
