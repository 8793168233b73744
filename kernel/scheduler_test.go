package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 2 (spec.md §8): priority preemption. With T1 (prio 10) running,
// creating T2 (prio 5) from "inside" T1 must request a switch that only
// takes effect once the mock port services it.
func TestPriorityPreemption(t *testing.T) {
	k, p := newTestKernel(t)
	require.NoError(t, k.CreateTask(1, 10, make([]byte, 256), noopEntry, 0))
	require.NoError(t, k.Start())

	cur, err := k.CurrentTask()
	require.NoError(t, err)
	require.Equal(t, 1, cur)

	require.NoError(t, k.CreateTask(2, 5, make([]byte, 256), noopEntry, 0))

	// Not yet switched: the decision is pending, not committed.
	cur, err = k.CurrentTask()
	require.NoError(t, err)
	assert.Equal(t, 1, cur, "switch must not commit before the port services it")
	assert.True(t, p.SwitchPending)
	assert.GreaterOrEqual(t, p.RequestSwitchCalls, 1)

	serviced := p.Service()
	require.True(t, serviced)

	cur, err = k.CurrentTask()
	require.NoError(t, err)
	assert.Equal(t, 2, cur)
}

// Scenario 3 (spec.md §8): sleep-and-wake. T1 sleeps for 5 ticks; idle runs
// in the meantime; T1 becomes the pending next task exactly on the 5th
// tick.
func TestSleepAndWake(t *testing.T) {
	k, p := newTestKernel(t)
	require.NoError(t, k.CreateTask(1, 10, make([]byte, 256), noopEntry, 0))
	require.NoError(t, k.Start())

	k.Sleep(5)
	require.True(t, p.Service())

	cur, err := k.CurrentTask()
	require.NoError(t, err)
	assert.Equal(t, 0, cur, "idle runs while T1 sleeps")

	for i := 0; i < 4; i++ {
		k.Tick()
		assert.False(t, p.Service(), "T1 must not wake before tick 5")
	}

	k.Tick() // 5th tick
	require.True(t, p.Service())

	cur, err = k.CurrentTask()
	require.NoError(t, err)
	assert.Equal(t, 1, cur)
}

// Scenario 4 (spec.md §8): yield among equals. Two equal-priority tasks
// must alternate on repeated yields, never starving one another.
func TestYieldAmongEquals(t *testing.T) {
	k, p := newTestKernel(t)
	require.NoError(t, k.CreateTask(1, 10, make([]byte, 256), noopEntry, 0))
	require.NoError(t, k.CreateTask(2, 10, make([]byte, 256), noopEntry, 0))
	require.NoError(t, k.Start())

	cur, _ := k.CurrentTask()
	require.Equal(t, 1, cur)

	k.Sleep(0) // T1 yields
	require.True(t, p.Service())
	cur, _ = k.CurrentTask()
	assert.Equal(t, 2, cur, "T2 gets a turn")

	k.Sleep(0) // T2 yields
	require.True(t, p.Service())
	cur, _ = k.CurrentTask()
	assert.Equal(t, 1, cur, "T1 gets a turn back")

	k.Sleep(0) // T1 yields again
	require.True(t, p.Service())
	cur, _ = k.CurrentTask()
	assert.Equal(t, 2, cur, "alternation continues, no starvation")
}

// A solo task yielding with no peer ready must keep running (no-op).
func TestYieldWithNoPeerIsNoOp(t *testing.T) {
	k, p := newTestKernel(t)
	require.NoError(t, k.CreateTask(1, 10, make([]byte, 256), noopEntry, 0))
	require.NoError(t, k.Start())

	k.Sleep(0)
	assert.False(t, p.Service(), "no switch should have been requested")

	cur, _ := k.CurrentTask()
	assert.Equal(t, 1, cur)
}

// Scenario 5 (spec.md §8): idle runs while the only task sleeps for 100
// ticks, then the task wakes on tick 100 exactly.
func TestIdleWhenAllAsleep(t *testing.T) {
	k, p := newTestKernel(t)
	require.NoError(t, k.CreateTask(1, 10, make([]byte, 256), noopEntry, 0))
	require.NoError(t, k.Start())

	k.Sleep(100)
	require.True(t, p.Service())

	for tick := 1; tick < 100; tick++ {
		k.Tick()
		cur, err := k.CurrentTask()
		require.NoError(t, err)
		require.Equal(t, 0, cur, "idle must be running at tick %d", tick)
	}

	k.Tick() // tick 100
	require.True(t, p.Service())

	cur, err := k.CurrentTask()
	require.NoError(t, err)
	assert.Equal(t, 1, cur)
}

// The Panic hook is reachable and replaceable; a kernel started normally
// never triggers it.
func TestPanicHookReplaceable(t *testing.T) {
	k, _ := newTestKernel(t)

	var called string
	k.Panic = func(msg string) { called = msg }

	require.NoError(t, k.Start())
	assert.Empty(t, called)
}
