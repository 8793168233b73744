package hostsim_test

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/bbrown1867/rucos/kernel"
	"github.com/bbrown1867/rucos/port/hostsim"
)

func newQuietLog() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return logrus.NewEntry(l)
}

// A single task running under hostsim must actually execute its body on a
// real goroutine and be able to report progress back to the test.
func TestHostsimRunsTaskBody(t *testing.T) {
	p := hostsim.New(newQuietLog())
	k, err := kernel.New(kernel.DefaultConfig(), p)
	require.NoError(t, err)
	p.Kernel = k

	p.PrepareTask(0)
	require.NoError(t, k.Init(make([]byte, 4096), p.IdleHook()))

	ran := make(chan struct{}, 1)
	p.PrepareTask(1)
	require.NoError(t, k.CreateTask(1, 10, make([]byte, 4096), func(uint32) {
		ran <- struct{}{}
		for {
			p.Sleep(1)
		}
	}, 0))

	require.NoError(t, k.Start())
	defer p.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("task body never ran")
	}
}

// A higher-priority task created after a lower-priority one is already
// running must actually take over the goroutine baton once scheduled.
func TestHostsimPreemptsOnCreate(t *testing.T) {
	p := hostsim.New(newQuietLog())
	k, err := kernel.New(kernel.DefaultConfig(), p)
	require.NoError(t, err)
	p.Kernel = k

	p.PrepareTask(0)
	require.NoError(t, k.Init(make([]byte, 4096), p.IdleHook()))

	lowRunning := make(chan struct{}, 1)
	p.PrepareTask(1)
	require.NoError(t, k.CreateTask(1, 20, make([]byte, 4096), func(uint32) {
		lowRunning <- struct{}{}
		for {
			p.Sleep(1)
		}
	}, 0))

	require.NoError(t, k.Start())
	defer p.Stop()

	select {
	case <-lowRunning:
	case <-time.After(2 * time.Second):
		t.Fatal("low priority task never ran")
	}

	highRan := make(chan struct{}, 1)
	require.NoError(t, p.CreateTask(2, 5, make([]byte, 4096), func(uint32) {
		highRan <- struct{}{}
		for {
			p.Sleep(1)
		}
	}, 0))

	select {
	case <-highRan:
	case <-time.After(2 * time.Second):
		t.Fatal("high priority task never got scheduled")
	}
}
