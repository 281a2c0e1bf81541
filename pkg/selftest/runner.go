package selftest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/MacroPower/kthreads/pkg/alarm"
	"github.com/MacroPower/kthreads/pkg/kernel"
	"github.com/MacroPower/kthreads/pkg/tracing"
)

const (
	// DefaultTickInterval is the default wall-clock time between timer
	// interrupts.
	DefaultTickInterval = 100 * time.Microsecond

	// DefaultTimeout is the default time limit for one suite.
	DefaultTimeout = 30 * time.Second
)

// Options configure a [Runner].
type Options struct {
	Tracer       tracing.Tracer
	Logger       *slog.Logger
	Kernel       kernel.Config
	TickInterval time.Duration
	Timeout      time.Duration
	Parallel     int
}

// Runner runs suites.
type Runner struct {
	tracer tracing.Tracer
	logger *slog.Logger
	suites []Suite
	opts   Options
}

// NewRunner creates a [Runner] for suites. Zero option fields take their
// default values.
func NewRunner(opts Options, suites ...Suite) *Runner {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	if opts.Parallel <= 0 {
		opts.Parallel = runtime.GOMAXPROCS(0)
	}

	r := &Runner{
		suites: suites,
		opts:   opts,
		tracer: opts.Tracer,
		logger: opts.Logger,
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	if r.tracer == nil {
		r.tracer = tracing.NewLoggingTracer(r.logger, slog.LevelInfo)
	}

	return r
}

// Select returns the suites with the given names, in the order given. With no
// names, it returns every suite.
func (r *Runner) Select(names ...string) ([]Suite, error) {
	if len(names) == 0 {
		return r.suites, nil
	}

	selected := make([]Suite, 0, len(names))

	var merr error

	for _, name := range names {
		found := false

		for _, s := range r.suites {
			if s.Name == name {
				selected = append(selected, s)
				found = true

				break
			}
		}

		if !found {
			merr = multierror.Append(merr, fmt.Errorf("%w: %q", ErrUnknownSuite, name))
		}
	}

	if merr != nil {
		return nil, merr
	}

	return selected, nil
}

// Run runs the named suites, or all suites if names is empty. The returned
// [Report] lists every suite's outcome. If any suite failed, Run also returns
// an error wrapping [ErrSuiteFailed] that aggregates the failures.
func (r *Runner) Run(ctx context.Context, names ...string) (*Report, error) {
	suites, err := r.Select(names...)
	if err != nil {
		return nil, err
	}

	report := &Report{Results: make([]Result, len(suites))}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Parallel)

	for i, s := range suites {
		g.Go(func() error {
			report.Results[i] = r.runSuite(gCtx, s)

			return nil
		})
	}

	// Suites record their own failures.
	_ = g.Wait()

	var merr *multierror.Error

	for _, res := range report.Results {
		if res.Err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", res.Suite, res.Err))
		}
	}

	if err := merr.ErrorOrNil(); err != nil {
		return report, fmt.Errorf("%w: %w", ErrSuiteFailed, err)
	}

	return report, nil
}

func (r *Runner) runSuite(ctx context.Context, s Suite) Result {
	span := r.tracer.StartSpan("suite")
	defer span.Finish()

	span.SetBaggageItem("suite", s.Name)

	logger := r.logger.With(slog.String("suite", s.Name))
	logger.Info("running suite")

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	k := kernel.New(r.opts.Kernel)
	env := &Env{
		Kernel: k,
		Alarm:  alarm.New(k),
		Logger: logger,
	}

	clockCtx, stopClock := context.WithCancel(ctx)

	var clock errgroup.Group

	clock.Go(func() error {
		return k.Timer().Run(clockCtx, r.opts.TickInterval)
	})

	start := time.Now()
	err := s.Run(ctx, env)
	elapsed := time.Since(start)

	stopClock()

	if cerr := clock.Wait(); cerr != nil && !errors.Is(cerr, context.Canceled) && err == nil {
		err = cerr
	}

	span.SetBaggageItem("ticks", k.Timer().Time())

	res := Result{
		Suite:    s.Name,
		Title:    s.Title(),
		Duration: elapsed,
		Ticks:    k.Timer().Time(),
		Err:      err,
	}

	if err != nil {
		span.SetBaggageItem(tracing.ErrorKey, err.Error())
	}

	return res
}
