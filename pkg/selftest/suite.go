package selftest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/MacroPower/kthreads/pkg/alarm"
	"github.com/MacroPower/kthreads/pkg/kernel"
)

// pollInterval is how often scenarios re-check a condition they wait for.
const pollInterval = time.Millisecond

// Env is the machine a suite runs on.
type Env struct {
	Kernel *kernel.Kernel
	Alarm  *alarm.Alarm
	Logger *slog.Logger
}

// Suite is a named scenario.
type Suite struct {
	// Run executes the scenario. It returns an error wrapping
	// [ErrUnexpected] if an expectation fails, or ctx's error if the
	// scenario did not complete in time.
	Run         func(ctx context.Context, env *Env) error
	Name        string
	Description string
}

// NewSuite creates a [Suite]. The suite name is the kebab-case form of id,
// so "MakeWater" becomes "make-water".
func NewSuite(id, description string, run func(ctx context.Context, env *Env) error) Suite {
	return Suite{
		Name:        strcase.ToKebab(id),
		Description: description,
		Run:         run,
	}
}

// Title returns a human-readable form of the suite name.
func (s Suite) Title() string {
	return cases.Title(language.English).String(strings.ReplaceAll(s.Name, "-", " "))
}

// Suites returns the built-in suites.
func Suites() []Suite {
	return []Suite{
		NewSuite("Alarm", "threads wake in deadline order; past deadlines do not sleep", runAlarm),
		NewSuite("Condition", "sleepers wake one at a time, then all at once", runCondition),
		NewSuite("Communicator", "speakers and listeners pair off in any arrival order", runCommunicator),
		NewSuite("MakeWater", "two hydrogen and one oxygen bond per molecule", runMakeWater),
	}
}

func expect(ok bool, format string, args ...any) error {
	if ok {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrUnexpected, fmt.Sprintf(format, args...))
}

// waitFor polls cond until it returns true or ctx is done.
func waitFor(ctx context.Context, what string, cond func() bool) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for !cond() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for %s: %w", what, ctx.Err())
		case <-ticker.C:
		}
	}

	return nil
}

func waitBlocked(ctx context.Context, threads ...*kernel.Thread) error {
	for _, t := range threads {
		err := waitFor(ctx, t.Name()+" to block", func() bool {
			return t.State() == kernel.StateBlocked
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func joinAll(ctx context.Context, threads ...*kernel.Thread) error {
	for _, t := range threads {
		if err := t.JoinContext(ctx); err != nil {
			return err
		}
	}

	return nil
}
