package kernel_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbrown1867/rucos/kernel"
	"github.com/bbrown1867/rucos/port/mockport"
)

func newTestKernel(t *testing.T) (*kernel.Kernel, *mockport.Port) {
	t.Helper()
	p := mockport.New()
	k, err := kernel.New(kernel.DefaultConfig(), p)
	require.NoError(t, err)
	p.Kernel = k
	require.NoError(t, k.Init(make([]byte, 256), nil))
	return k, p
}

func noopEntry(uint32) {}

func TestNewRejectsInvalidConfig(t *testing.T) {
	p := mockport.New()

	_, err := kernel.New(kernel.Config{MaxTasks: 0, NumPriorities: 1, TickRateHz: 1}, p)
	assert.ErrorIs(t, err, kernel.ErrInvalidConfig)

	_, err = kernel.New(kernel.Config{MaxTasks: 65, NumPriorities: 1, TickRateHz: 1}, p)
	assert.ErrorIs(t, err, kernel.ErrInvalidConfig)

	_, err = kernel.New(kernel.Config{MaxTasks: 1, NumPriorities: 1, IdlePriority: 1, TickRateHz: 1}, p)
	assert.ErrorIs(t, err, kernel.ErrInvalidConfig)

	_, err = kernel.New(kernel.Config{MaxTasks: 1, NumPriorities: 1, TickRateHz: 0}, p)
	assert.ErrorIs(t, err, kernel.ErrInvalidConfig)

	_, err = kernel.New(kernel.DefaultConfig(), nil)
	assert.ErrorIs(t, err, kernel.ErrInvalidConfig)
}

func TestInitExactlyOnce(t *testing.T) {
	k, _ := newTestKernel(t)
	err := k.Init(make([]byte, 256), nil)
	assert.ErrorIs(t, err, kernel.ErrAlreadyInitialized)
}

func TestCreateTaskBeforeInitFails(t *testing.T) {
	p := mockport.New()
	k, err := kernel.New(kernel.DefaultConfig(), p)
	require.NoError(t, err)
	p.Kernel = k

	err = k.CreateTask(1, 10, make([]byte, 256), noopEntry, 0)
	assert.ErrorIs(t, err, kernel.ErrNotInitialized)
}

func TestCreateTaskRejectsReservedPriority(t *testing.T) {
	k, _ := newTestKernel(t)
	err := k.CreateTask(1, kernel.DefaultConfig().IdlePriority, make([]byte, 256), noopEntry, 0)
	assert.ErrorIs(t, err, kernel.ErrReservedPriority)
}

func TestCreateTaskRejectsOutOfRangeID(t *testing.T) {
	k, _ := newTestKernel(t)
	cfg := kernel.DefaultConfig()

	err := k.CreateTask(-1, 10, make([]byte, 256), noopEntry, 0)
	assert.ErrorIs(t, err, kernel.ErrInvalidID)

	err = k.CreateTask(cfg.MaxTasks, 10, make([]byte, 256), noopEntry, 0)
	assert.ErrorIs(t, err, kernel.ErrInvalidID)
}

// Scenario 6 (spec.md §8): duplicate rejection leaves state untouched.
func TestDuplicateTaskRejectedLeavesStateIdentical(t *testing.T) {
	k, _ := newTestKernel(t)
	require.NoError(t, k.CreateTask(1, 10, make([]byte, 256), noopEntry, 0))

	stateBefore, err := k.TaskState(1)
	require.NoError(t, err)

	err = k.CreateTask(1, 20, make([]byte, 256), noopEntry, 1)
	assert.True(t, errors.Is(err, kernel.ErrDuplicateTask))

	stateAfter, err := k.TaskState(1)
	require.NoError(t, err)
	assert.Equal(t, stateBefore, stateAfter)
}

func TestStartRequiresInit(t *testing.T) {
	p := mockport.New()
	k, err := kernel.New(kernel.DefaultConfig(), p)
	require.NoError(t, err)
	p.Kernel = k

	assert.ErrorIs(t, k.Start(), kernel.ErrNotInitialized)
}

func TestStartTwiceFails(t *testing.T) {
	k, _ := newTestKernel(t)
	require.NoError(t, k.Start())
	assert.ErrorIs(t, k.Start(), kernel.ErrAlreadyStarted)
}

func TestCurrentTaskBeforeStartErrors(t *testing.T) {
	k, _ := newTestKernel(t)
	_, err := k.CurrentTask()
	assert.ErrorIs(t, err, kernel.ErrNotStarted)
}

// Scenario 1 (spec.md §8): a single created task runs after Start.
func TestSingleTaskRuns(t *testing.T) {
	k, p := newTestKernel(t)
	require.NoError(t, k.CreateTask(1, 10, make([]byte, 256), noopEntry, 0))
	require.NoError(t, k.Start())

	id, err := k.CurrentTask()
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	assert.Equal(t, 1, p.LaunchFirstTaskCall)
	assert.True(t, p.TickSourceEnabled)
}

// With no user tasks created, Start must hand off to the idle task.
func TestStartFallsBackToIdle(t *testing.T) {
	k, _ := newTestKernel(t)
	require.NoError(t, k.Start())

	id, err := k.CurrentTask()
	require.NoError(t, err)
	assert.Equal(t, 0, id)
}

func TestTickBeforeStartIsFrozen(t *testing.T) {
	k, _ := newTestKernel(t)
	k.Tick()
	k.Tick()
	assert.Equal(t, uint64(0), k.TickCount())
}

func TestTickMonotone(t *testing.T) {
	k, _ := newTestKernel(t)
	require.NoError(t, k.Start())

	before := k.TickCount()
	k.Tick()
	assert.Equal(t, before+1, k.TickCount())
}

func TestTickRateHz(t *testing.T) {
	cfg := kernel.DefaultConfig()
	cfg.TickRateHz = 250
	p := mockport.New()
	k, err := kernel.New(cfg, p)
	require.NoError(t, err)
	assert.Equal(t, uint32(250), k.TickRateHz())
}
