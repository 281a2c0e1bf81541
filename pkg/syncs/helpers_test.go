package syncs_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MacroPower/kthreads/pkg/kernel"
)

const waitFor = 5 * time.Second

func fork(t *testing.T, k *kernel.Kernel, name string, fn func(self *kernel.Thread)) *kernel.Thread {
	t.Helper()

	th, err := k.Fork(name, fn)
	require.NoError(t, err)

	return th
}

func requireBlocked(t *testing.T, th *kernel.Thread) {
	t.Helper()

	require.Eventually(t, func() bool {
		return th.State() == kernel.StateBlocked
	}, waitFor, time.Millisecond, "%s never blocked", th.Name())
}

func requireFinished(t *testing.T, th *kernel.Thread) {
	t.Helper()

	select {
	case <-th.Done():
	case <-time.After(waitFor):
		require.Failf(t, "thread did not finish", "%s is %s", th.Name(), th.State())
	}
}
