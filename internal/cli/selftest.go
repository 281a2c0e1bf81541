package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/MacroPower/kthreads/pkg/config"
	"github.com/MacroPower/kthreads/pkg/selftest"
)

// NewSelftestCmd returns the selftest command.
func NewSelftestCmd() *cobra.Command {
	var (
		configPath        string
		timeout           time.Duration
		tickInterval      time.Duration
		parallel          int
		maxThreads        int
		ticksPerInterrupt int64
	)

	cmd := &cobra.Command{
		Use:   "selftest [suite...]",
		Short: "Run the synchronization self-test suites",
		Long: `Run the synchronization self-test suites.

Each suite boots a fresh kernel, starts its timer, and exercises one
primitive: alarm, condition, communicator, or make-water. With no
arguments, every suite runs.`,
		ValidArgsFunction: func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			names := []string{}
			for _, s := range selftest.Suites() {
				names = append(names, s.Name)
			}

			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cc *cobra.Command, args []string) error {
			cfg := config.Default()

			if configPath != "" {
				var err error

				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}

			flags := cc.Flags()

			if flags.Changed("timeout") {
				cfg.Timeout = timeout
			}

			if flags.Changed("tick_interval") {
				cfg.TickInterval = tickInterval
			}

			if flags.Changed("parallel") {
				cfg.Parallel = parallel
			}

			if flags.Changed("max_threads") {
				cfg.Kernel.MaxThreads = maxThreads
			}

			if flags.Changed("ticks_per_interrupt") {
				cfg.Kernel.TicksPerInterrupt = ticksPerInterrupt
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid argument: %w", err)
			}

			opts := cfg.Options()
			opts.Logger = slog.Default()

			report, runErr := selftest.NewRunner(opts, selftest.Suites()...).Run(cc.Context(), args...)
			if report == nil {
				return runErr
			}

			out := cc.OutOrStdout()

			err := report.Render(out, colorProfile(out))
			if err != nil {
				runErr = multierror.Append(runErr, err)
			}

			return runErr
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a kthreads.yaml config file")
	cmd.Flags().DurationVar(&timeout, "timeout", selftest.DefaultTimeout, "Time limit for each suite")
	cmd.Flags().DurationVar(&tickInterval, "tick_interval", selftest.DefaultTickInterval,
		"Wall-clock time between timer interrupts")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "Number of suites to run at once (0 for GOMAXPROCS)")
	cmd.Flags().IntVar(&maxThreads, "max_threads", 0, "Maximum number of live threads per kernel")
	cmd.Flags().Int64Var(&ticksPerInterrupt, "ticks_per_interrupt", 0, "Ticks the clock advances per interrupt")

	must(cmd.MarkFlagFilename("config", "yaml", "yml"))

	return cmd
}

func colorProfile(w io.Writer) termenv.Profile {
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return termenv.Ascii
	}

	return termenv.EnvColorProfile()
}
