package selftest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/MacroPower/kthreads/pkg/kernel"
	"github.com/MacroPower/kthreads/pkg/syncs"
)

// wakeLog records the order threads woke in, and the tick they woke at.
type wakeLog struct {
	names []string
	ticks []int64
	mu    sync.Mutex
}

func (l *wakeLog) record(name string, tick int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.names = append(l.names, name)
	l.ticks = append(l.ticks, tick)
}

func (l *wakeLog) snapshot() ([]string, []int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.names), slices.Clone(l.ticks)
}

func runAlarm(ctx context.Context, env *Env) error {
	k := env.Kernel
	timer := k.Timer()

	sleeper := func(log *wakeLog, ticks int64, dependsOn *kernel.Thread) func(*kernel.Thread) {
		return func(self *kernel.Thread) {
			env.Logger.Debug("starting", "thread", self, "time", timer.Time())

			if dependsOn != nil {
				env.Logger.Debug("waiting for thread", "thread", self, "on", dependsOn)
				dependsOn.Join()
			}

			env.Alarm.WaitUntil(self, ticks)
			log.record(self.Name(), timer.Time())

			env.Logger.Debug("finishing", "thread", self, "time", timer.Time())
		}
	}

	env.Logger.Info("threads wake in deadline order")

	var order wakeLog

	start := timer.Time()

	t1, err := k.Fork("alarm thread 1", sleeper(&order, 20000, nil))
	if err != nil {
		return err
	}

	t2, err := k.Fork("alarm thread 2", sleeper(&order, 10000, nil))
	if err != nil {
		return err
	}

	if err := joinAll(ctx, t1, t2); err != nil {
		return err
	}

	names, ticks := order.snapshot()
	if err := expect(slices.Equal(names, []string{"alarm thread 2", "alarm thread 1"}),
		"wake order %v", names); err != nil {
		return err
	}

	if err := expect(ticks[0] >= start+10000 && ticks[1] >= start+20000,
		"woke at %v, started at %d", ticks, start); err != nil {
		return err
	}

	env.Logger.Info("a past deadline does not sleep")

	var past wakeLog

	t3, err := k.Fork("alarm thread 3", sleeper(&past, -5000, nil))
	if err != nil {
		return err
	}

	if err := joinAll(ctx, t3); err != nil {
		return err
	}

	if err := expect(env.Alarm.Sleeping() == 0, "%d threads still sleeping", env.Alarm.Sleeping()); err != nil {
		return err
	}

	env.Logger.Info("a thread waits for a sleeping thread it joined")

	var joined wakeLog

	t4, err := k.Fork("alarm thread 4", sleeper(&joined, 10000, nil))
	if err != nil {
		return err
	}

	t5, err := k.Fork("alarm thread 5", sleeper(&joined, 0, t4))
	if err != nil {
		return err
	}

	if err := joinAll(ctx, t4, t5); err != nil {
		return err
	}

	names, _ = joined.snapshot()

	return expect(slices.Equal(names, []string{"alarm thread 4", "alarm thread 5"}), "wake order %v", names)
}

func runCondition(ctx context.Context, env *Env) error {
	k := env.Kernel
	main := k.Main()
	lock := kernel.NewLock()
	cond := syncs.NewCondition(lock)

	var woken wakeLog

	sleeper := func(self *kernel.Thread) {
		env.Logger.Debug("going to sleep", "thread", self)

		lock.Acquire(self)
		cond.Sleep(self)
		lock.Release(self)

		woken.record(self.Name(), k.Timer().Time())
		env.Logger.Debug("awake", "thread", self)
	}

	threads := []*kernel.Thread{}

	enqueue := func(names ...string) error {
		for _, name := range names {
			want := cond.Waiters() + 1

			t, err := k.Fork(name, sleeper)
			if err != nil {
				return err
			}

			threads = append(threads, t)

			if err := waitFor(ctx, name+" to sleep", func() bool { return cond.Waiters() == want }); err != nil {
				return err
			}
		}

		return nil
	}

	env.Logger.Info("wake the longest sleeper")

	if err := enqueue("thread1", "thread2"); err != nil {
		return err
	}

	lock.Acquire(main)
	cond.Wake(main)
	lock.Release(main)

	if err := joinAll(ctx, threads[0]); err != nil {
		return err
	}

	env.Logger.Info("wake all sleepers")

	if err := enqueue("thread3", "thread4"); err != nil {
		return err
	}

	lock.Acquire(main)
	cond.WakeAll(main)
	lock.Release(main)

	if err := joinAll(ctx, threads...); err != nil {
		return err
	}

	names, _ := woken.snapshot()
	if err := expect(len(names) == 4 && names[0] == "thread1", "woke %v", names); err != nil {
		return err
	}

	return expect(cond.Waiters() == 0, "%d threads still waiting", cond.Waiters())
}

func runCommunicator(ctx context.Context, env *Env) error {
	k := env.Kernel
	comm := syncs.NewCommunicator[int]()

	attempts := []struct {
		name  string
		roles string
		words []int
	}{
		{name: "a speaker then a listener", roles: "SL", words: []int{1}},
		{name: "a listener then a speaker", roles: "LS", words: []int{2}},
		{name: "two speakers then two listeners", roles: "SSLL", words: []int{3, 4}},
		{name: "two listeners then two speakers", roles: "LLSS", words: []int{5, 6}},
	}

	n := 0

	for i, attempt := range attempts {
		env.Logger.Info(fmt.Sprintf("attempt %d: %s", i+1, attempt.name))

		var (
			mu    sync.Mutex
			heard []int
		)

		threads := []*kernel.Thread{}
		words := slices.Clone(attempt.words)

		for _, role := range attempt.roles {
			n++
			name := fmt.Sprintf("communicator thread %d", n)

			var fn func(*kernel.Thread)

			if role == 'S' {
				word := words[0]
				words = words[1:]

				fn = func(self *kernel.Thread) {
					env.Logger.Debug("speaking", "thread", self, "word", word)
					comm.Speak(self, word)
				}
			} else {
				fn = func(self *kernel.Thread) {
					word := comm.Listen(self)
					env.Logger.Debug("heard", "thread", self, "word", word)

					mu.Lock()
					heard = append(heard, word)
					mu.Unlock()
				}
			}

			t, err := k.Fork(name, fn)
			if err != nil {
				return err
			}

			threads = append(threads, t)

			// Queue threads in the order given, unless the thread completes
			// a pair and may legitimately finish straight away.
			if len(threads) <= len(attempt.roles)/2 {
				if err := waitBlocked(ctx, t); err != nil {
					return err
				}
			}
		}

		if err := joinAll(ctx, threads...); err != nil {
			return err
		}

		mu.Lock()
		got := slices.Clone(heard)
		mu.Unlock()

		slices.Sort(got)

		if err := expect(slices.Equal(got, attempt.words), "attempt %d heard %v, want %v", i+1, got, attempt.words); err != nil {
			return err
		}
	}

	return nil
}

func runMakeWater(ctx context.Context, env *Env) error {
	k := env.Kernel

	var made int

	water := syncs.NewWater(func() {
		made++

		env.Logger.Debug("water is made", "molecules", made)
	})

	tests := []struct {
		name  string
		atoms string
	}{
		{name: "two hydrogen then one oxygen", atoms: "HHO"},
		{name: "one oxygen then two hydrogen", atoms: "OHH"},
		{name: "two oxygen then four hydrogen", atoms: "OOHHHH"},
	}

	want := uint64(0)

	for i, tc := range tests {
		env.Logger.Info(fmt.Sprintf("make water test %d: %s", i+1, tc.name))

		threads := []*kernel.Thread{}

		for j, atom := range tc.atoms {
			fn := water.HydrogenReady
			name := fmt.Sprintf("hydrogen thread %d.%d", i+1, j+1)

			if atom == 'O' {
				fn = water.OxygenReady
				name = fmt.Sprintf("oxygen thread %d.%d", i+1, j+1)
			}

			t, err := k.Fork(name, fn)
			if err != nil {
				return err
			}

			threads = append(threads, t)
		}

		if err := joinAll(ctx, threads...); err != nil {
			return err
		}

		want += uint64(len(tc.atoms) / 3)

		fired := water.Fired(k.Main())
		if err := expect(fired == want, "test %d: made %d molecules, want %d", i+1, fired, want); err != nil {
			return err
		}
	}

	left := water.Outstanding(k.Main())

	return expect(left == syncs.Rule{}, "atoms left over: %+v", left)
}
