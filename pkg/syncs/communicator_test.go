package syncs_test

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MacroPower/kthreads/pkg/kernel"
	"github.com/MacroPower/kthreads/pkg/syncs"
)

func TestCommunicator_SpeakBeforeListen(t *testing.T) {
	t.Parallel()

	k := kernel.New(kernel.DefaultConfig())
	c := syncs.NewCommunicator[int]()

	speaker := fork(t, k, "speaker", func(self *kernel.Thread) {
		c.Speak(self, 42)
	})

	requireBlocked(t, speaker)

	got := c.Listen(k.Main())
	assert.Equal(t, 42, got)

	requireFinished(t, speaker)
}

func TestCommunicator_ListenBeforeSpeak(t *testing.T) {
	t.Parallel()

	k := kernel.New(kernel.DefaultConfig())
	c := syncs.NewCommunicator[string]()

	var got string

	listener := fork(t, k, "listener", func(self *kernel.Thread) {
		got = c.Listen(self)
	})

	requireBlocked(t, listener)

	c.Speak(k.Main(), "hello")

	requireFinished(t, listener)
	assert.Equal(t, "hello", got)
}

func TestCommunicator_Ordering(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		order []string
	}{
		"speaker then listener": {
			order: []string{"S", "L"},
		},
		"listener then speaker": {
			order: []string{"L", "S"},
		},
		"two speakers then two listeners": {
			order: []string{"S", "S", "L", "L"},
		},
		"two listeners then two speakers": {
			order: []string{"L", "L", "S", "S"},
		},
		"interleaved": {
			order: []string{"S", "L", "L", "S", "S", "S", "L", "L"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			k := kernel.New(kernel.DefaultConfig())
			c := syncs.NewCommunicator[int]()

			var (
				mu       sync.Mutex
				received []int
				spoken   []int
			)

			threads := []*kernel.Thread{}

			for i, role := range tc.order {
				thread := fmt.Sprintf("%s%d", role, i)

				switch role {
				case "S":
					spoken = append(spoken, i)

					threads = append(threads, fork(t, k, thread, func(self *kernel.Thread) {
						c.Speak(self, i)
					}))
				case "L":
					threads = append(threads, fork(t, k, thread, func(self *kernel.Thread) {
						v := c.Listen(self)

						mu.Lock()
						received = append(received, v)
						mu.Unlock()
					}))
				}
			}

			for _, th := range threads {
				requireFinished(t, th)
			}

			assert.ElementsMatch(t, spoken, received)
		})
	}
}

func TestCommunicator_ExactlyOnce(t *testing.T) {
	t.Parallel()

	const pairs = 200

	k := kernel.New(kernel.DefaultConfig())
	c := syncs.NewCommunicator[int]()

	var (
		mu     sync.Mutex
		counts = make(map[int]int)
	)

	roles := make([]bool, 0, 2*pairs)
	for range pairs {
		roles = append(roles, true, false)
	}

	rand.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	threads := []*kernel.Thread{}
	next := 0

	for _, speaker := range roles {
		if speaker {
			v := next
			next++

			threads = append(threads, fork(t, k, "speaker", func(self *kernel.Thread) {
				c.Speak(self, v)
			}))

			continue
		}

		threads = append(threads, fork(t, k, "listener", func(self *kernel.Thread) {
			v := c.Listen(self)

			mu.Lock()
			counts[v]++
			mu.Unlock()
		}))
	}

	for _, th := range threads {
		requireFinished(t, th)
	}

	require.Len(t, counts, pairs)

	for v := range pairs {
		assert.Equal(t, 1, counts[v], "value %d", v)
	}
}

func TestCommunicator_ManyListenersOneSpeaker(t *testing.T) {
	t.Parallel()

	k := kernel.New(kernel.DefaultConfig())
	c := syncs.NewCommunicator[int]()

	results := make(chan int, 3)

	listeners := []*kernel.Thread{}
	for range 3 {
		listeners = append(listeners, fork(t, k, "listener", func(self *kernel.Thread) {
			results <- c.Listen(self)
		}))
	}

	for _, l := range listeners {
		requireBlocked(t, l)
	}

	c.Speak(k.Main(), 7)
	assert.Equal(t, 7, <-results)

	// The remaining listeners stay blocked until someone speaks again.
	assert.Empty(t, results)

	c.Speak(k.Main(), 8)
	c.Speak(k.Main(), 9)

	for _, l := range listeners {
		requireFinished(t, l)
	}

	close(results)

	rest := []int{}
	for v := range results {
		rest = append(rest, v)
	}

	assert.ElementsMatch(t, []int{8, 9}, rest)
}
