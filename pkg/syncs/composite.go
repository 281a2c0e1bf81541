package syncs

import (
	"fmt"
	"log/slog"

	"github.com/MacroPower/kthreads/pkg/kernel"
)

// Rule is the number of arrivals of each kind consumed by one firing of a
// [Composite].
type Rule struct {
	A int
	B int
}

// WaterRule consumes two hydrogen (A) and one oxygen (B) arrival.
var WaterRule = Rule{A: 2, B: 1}

// Validate returns an error wrapping [ErrInvalidRule] if r requires a
// non-positive number of units of either kind.
func (r Rule) Validate() error {
	if r.A <= 0 || r.B <= 0 {
		return fmt.Errorf("%w: need A=%d, B=%d", ErrInvalidRule, r.A, r.B)
	}

	return nil
}

// Composite blocks arriving threads of two kinds until enough of both kinds
// are outstanding to satisfy its [Rule]. The arrival that completes the rule
// runs the composite action and releases exactly the other participants of
// that firing, oldest arrivals first.
type Composite struct {
	lock   *kernel.Lock
	a      *Condition
	b      *Condition
	action func()

	rule Rule

	// Arrivals and releases are counted per kind. An arrival's ticket is the
	// arrival count before it arrived; it is released once the release count
	// passes its ticket.
	arrivedA, releasedA uint64
	arrivedB, releasedB uint64
	fired               uint64
}

// NewComposite creates a [Composite] that runs action, if not nil, each time
// rule is satisfied. The action runs while the composite's lock is held and
// must not block.
func NewComposite(rule Rule, action func()) (*Composite, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	lock := kernel.NewLock()

	return &Composite{
		lock:   lock,
		a:      NewCondition(lock),
		b:      NewCondition(lock),
		rule:   rule,
		action: action,
	}, nil
}

// ArriveA registers t as an arrival of kind A and blocks until a firing
// consumes it.
func (c *Composite) ArriveA(t *kernel.Thread) {
	c.arrive(t, true)
}

// ArriveB registers t as an arrival of kind B and blocks until a firing
// consumes it.
func (c *Composite) ArriveB(t *kernel.Thread) {
	c.arrive(t, false)
}

// Fired returns the number of times the composite action has run.
func (c *Composite) Fired(t *kernel.Thread) uint64 {
	c.lock.Acquire(t)
	defer c.lock.Release(t)

	return c.fired
}

// Outstanding returns the number of arrivals of each kind that no firing has
// consumed yet.
func (c *Composite) Outstanding(t *kernel.Thread) Rule {
	c.lock.Acquire(t)
	defer c.lock.Release(t)

	return Rule{
		A: int(c.arrivedA - c.releasedA),
		B: int(c.arrivedB - c.releasedB),
	}
}

func (c *Composite) arrive(t *kernel.Thread, kindA bool) {
	c.lock.Acquire(t)
	defer c.lock.Release(t)

	var ticket uint64

	if kindA {
		ticket = c.arrivedA
		c.arrivedA++
	} else {
		ticket = c.arrivedB
		c.arrivedB++
	}

	if c.arrivedA-c.releasedA >= uint64(c.rule.A) && c.arrivedB-c.releasedB >= uint64(c.rule.B) {
		c.fire(t, kindA)
	}

	if kindA {
		for ticket >= c.releasedA {
			c.a.Sleep(t)
		}
	} else {
		for ticket >= c.releasedB {
			c.b.Sleep(t)
		}
	}
}

// fire consumes one rule's worth of the oldest outstanding arrivals and wakes
// those of them that are sleeping. The arriving thread is one of the consumed
// arrivals and is not asleep.
func (c *Composite) fire(t *kernel.Thread, kindA bool) {
	c.releasedA += uint64(c.rule.A)
	c.releasedB += uint64(c.rule.B)
	c.fired++

	wakeA, wakeB := c.rule.A, c.rule.B
	if kindA {
		wakeA--
	} else {
		wakeB--
	}

	slog.Debug("composite fired",
		slog.Any("thread", t),
		slog.Uint64("fired", c.fired),
		slog.Int("wake_a", wakeA),
		slog.Int("wake_b", wakeB),
	)

	if c.action != nil {
		c.action()
	}

	for range wakeA {
		c.a.Wake(t)
	}

	for range wakeB {
		c.b.Wake(t)
	}
}

// Water is a [Composite] that makes water molecules from two hydrogen atoms
// and one oxygen atom.
type Water struct {
	*Composite
}

// NewWater creates a [Water] that runs action for each molecule made.
func NewWater(action func()) *Water {
	c, err := NewComposite(WaterRule, action)
	if err != nil {
		panic(err)
	}

	return &Water{Composite: c}
}

// HydrogenReady registers a hydrogen atom and blocks until it is bonded.
func (w *Water) HydrogenReady(t *kernel.Thread) {
	w.ArriveA(t)
}

// OxygenReady registers an oxygen atom and blocks until it is bonded.
func (w *Water) OxygenReady(t *kernel.Thread) {
	w.ArriveB(t)
}
