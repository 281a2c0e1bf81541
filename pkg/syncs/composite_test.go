package syncs_test

import (
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MacroPower/kthreads/pkg/kernel"
	"github.com/MacroPower/kthreads/pkg/syncs"
)

func TestNewComposite_InvalidRule(t *testing.T) {
	t.Parallel()

	tests := map[string]syncs.Rule{
		"zero A":     {A: 0, B: 1},
		"zero B":     {A: 2, B: 0},
		"negative A": {A: -1, B: 1},
	}

	for name, rule := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := syncs.NewComposite(rule, nil)
			require.ErrorIs(t, err, syncs.ErrInvalidRule)
		})
	}
}

// arrivals drives a composite with arrivals issued one at a time, waiting for
// each to either block or be released before issuing the next. After every
// arrival it checks that exactly rule.A and rule.B callers were released per
// firing.
type arrivals struct {
	t         *testing.T
	k         *kernel.Kernel
	c         *syncs.Composite
	rule      syncs.Rule
	threads   []*kernel.Thread
	releasedA atomic.Int64
	releasedB atomic.Int64
	outA      int
	outB      int
	fired     int
}

func newArrivals(t *testing.T, rule syncs.Rule) *arrivals {
	t.Helper()

	a := &arrivals{t: t, k: kernel.New(kernel.DefaultConfig()), rule: rule}

	c, err := syncs.NewComposite(rule, nil)
	require.NoError(t, err)

	a.c = c

	return a
}

func (a *arrivals) arrive(kindA bool) {
	a.t.Helper()

	kind := "B"
	if kindA {
		kind = "A"
		a.outA++
	} else {
		a.outB++
	}

	th := fork(a.t, a.k, fmt.Sprintf("%s%d", kind, len(a.threads)), func(self *kernel.Thread) {
		if kindA {
			a.c.ArriveA(self)
			a.releasedA.Add(1)
		} else {
			a.c.ArriveB(self)
			a.releasedB.Add(1)
		}
	})
	a.threads = append(a.threads, th)

	fires := a.outA >= a.rule.A && a.outB >= a.rule.B
	if fires {
		a.outA -= a.rule.A
		a.outB -= a.rule.B
		a.fired++
	}

	wantA := int64(a.fired * a.rule.A)
	wantB := int64(a.fired * a.rule.B)

	if fires {
		require.Eventually(a.t, func() bool {
			return a.releasedA.Load() == wantA && a.releasedB.Load() == wantB
		}, waitFor, time.Millisecond)
	} else {
		requireBlocked(a.t, th)
	}

	main := a.k.Main()

	assert.Equal(a.t, uint64(a.fired), a.c.Fired(main))
	assert.Equal(a.t, syncs.Rule{A: a.outA, B: a.outB}, a.c.Outstanding(main))
	assert.Equal(a.t, wantA, a.releasedA.Load(), "A callers released")
	assert.Equal(a.t, wantB, a.releasedB.Load(), "B callers released")
}

// drain completes every outstanding arrival so no thread stays blocked.
func (a *arrivals) drain() {
	a.t.Helper()

	for a.outA > 0 || a.outB > 0 {
		a.arrive(a.outA < a.rule.A)
	}

	for _, th := range a.threads {
		requireFinished(a.t, th)
	}
}

func TestComposite_Threshold(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		rule      syncs.Rule
		sequence  string
		wantFired int
	}{
		"two A then one B": {
			rule:      syncs.WaterRule,
			sequence:  "AAB",
			wantFired: 1,
		},
		"one B then two A": {
			rule:      syncs.WaterRule,
			sequence:  "BAA",
			wantFired: 1,
		},
		"A B A": {
			rule:      syncs.WaterRule,
			sequence:  "ABA",
			wantFired: 1,
		},
		"two B then four A": {
			rule:      syncs.WaterRule,
			sequence:  "BBAAAA",
			wantFired: 2,
		},
		"surplus A": {
			rule:      syncs.WaterRule,
			sequence:  "AAAAAB",
			wantFired: 1,
		},
		"surplus B": {
			rule:      syncs.WaterRule,
			sequence:  "BBBA",
			wantFired: 0,
		},
		"three to two": {
			rule:      syncs.Rule{A: 3, B: 2},
			sequence:  "ABABA",
			wantFired: 1,
		},
		"one to one": {
			rule:      syncs.Rule{A: 1, B: 1},
			sequence:  "AABB",
			wantFired: 2,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			a := newArrivals(t, tc.rule)

			for _, kind := range tc.sequence {
				a.arrive(kind == 'A')
			}

			assert.Equal(t, tc.wantFired, a.fired)

			a.drain()
		})
	}
}

func TestComposite_RandomSequences(t *testing.T) {
	t.Parallel()

	for i := range 10 {
		t.Run(fmt.Sprintf("seed %d", i), func(t *testing.T) {
			t.Parallel()

			r := rand.New(rand.NewPCG(uint64(i), 0))
			a := newArrivals(t, syncs.WaterRule)

			for range 30 {
				a.arrive(r.IntN(3) != 0)
			}

			a.drain()
		})
	}
}

func TestComposite_Concurrent(t *testing.T) {
	t.Parallel()

	const molecules = 100

	k := kernel.New(kernel.DefaultConfig())

	var made atomic.Int64

	w := syncs.NewWater(func() {
		made.Add(1)
	})

	kinds := make([]bool, 0, 3*molecules)
	for range molecules {
		kinds = append(kinds, true, true, false)
	}

	rand.Shuffle(len(kinds), func(i, j int) {
		kinds[i], kinds[j] = kinds[j], kinds[i]
	})

	threads := []*kernel.Thread{}

	for _, hydrogen := range kinds {
		if hydrogen {
			threads = append(threads, fork(t, k, "hydrogen", w.HydrogenReady))
		} else {
			threads = append(threads, fork(t, k, "oxygen", w.OxygenReady))
		}
	}

	for _, th := range threads {
		requireFinished(t, th)
	}

	assert.Equal(t, int64(molecules), made.Load())
	assert.Equal(t, uint64(molecules), w.Fired(k.Main()))
	assert.Equal(t, syncs.Rule{}, w.Outstanding(k.Main()))
}
