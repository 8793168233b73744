package kernel

// ═══════════════════════════════════════════════════════════════════════
// RUCOS CORE KERNEL
// ───────────────────────────────────────────────────────────────────────
// The task table, ready-set bookkeeping, tick counter, and the five
// public entry points of spec.md §6 (init, create, start, sleep, tick)
// plus get_current_task. Every mutation below runs to completion before
// returning — the port is responsible for wrapping each call in a
// critical section (spec.md §5), so nothing here masks interrupts or
// otherwise worries about concurrent re-entry.
// ═══════════════════════════════════════════════════════════════════════

// Kernel is the singleton scheduler state. The zero value is not usable;
// construct one with New.
type Kernel struct {
	cfg  Config
	port Port

	tasks []TCB
	ready readySet

	currentID     int
	nextID        int
	switchPending bool

	tickCount uint64

	initialized bool
	started     bool

	// Panic is invoked on an unrecoverable invariant violation (spec.md
	// §7: "the scheduler finds zero Ready tasks while the idle task
	// should always be Ready"). Defaults to the stdlib panic; host tests
	// may replace it to observe the failure without killing the test
	// binary, and a real port may replace it with its own fault handler.
	Panic func(msg string)
}

// New constructs a Kernel bound to port, validating cfg against the
// bitmap-width limits described on Config.
func New(cfg Config, port Port) (*Kernel, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if port == nil {
		return nil, ErrInvalidConfig
	}
	return &Kernel{
		cfg:   cfg,
		port:  port,
		tasks: make([]TCB, cfg.MaxTasks),
		ready: newReadySet(cfg.NumPriorities, cfg.MaxTasks),
		Panic: defaultPanic,
	}, nil
}

func defaultPanic(msg string) {
	panic("rucos/kernel: " + msg)
}

func (k *Kernel) fatal(msg string) {
	if k.Panic != nil {
		k.Panic(msg)
		return
	}
	defaultPanic(msg)
}

func (k *Kernel) currentTCB() *TCB {
	return &k.tasks[k.currentID]
}

// Init installs the idle task at id 0 and the reserved idle priority
// (spec.md §4.1). Must be called exactly once, before Start. After Init
// the kernel is in the pre-start phase: tasks may be created, but no
// scheduling occurs and the tick counter stays frozen at zero.
func (k *Kernel) Init(idleStack []byte, idleHook func()) error {
	if k.initialized {
		return ErrAlreadyInitialized
	}
	entry := func(uint32) {
		for {
			if idleHook != nil {
				idleHook()
			}
		}
	}
	if err := k.createTask(idleTaskID, k.cfg.IdlePriority, idleStack, entry, 0, true); err != nil {
		return err
	}
	k.initialized = true
	return nil
}

// CreateTask installs a new task (spec.md §4.2). Before Start it only
// populates the table; once the kernel is running it also re-evaluates
// scheduling, requesting a switch if the new task is more urgent than
// whichever task is currently Running.
func (k *Kernel) CreateTask(id int, priority uint8, stack []byte, entry EntryFunc, arg uint32) error {
	if !k.initialized {
		return ErrNotInitialized
	}
	return k.createTask(id, priority, stack, entry, arg, false)
}

func (k *Kernel) createTask(id int, priority uint8, stack []byte, entry EntryFunc, arg uint32, allowReserved bool) error {
	if id < 0 || id >= len(k.tasks) {
		return ErrInvalidID
	}
	if !allowReserved && priority == k.cfg.IdlePriority {
		return ErrReservedPriority
	}
	if k.tasks[id].State != StateUnused {
		return ErrDuplicateTask
	}

	sp := k.port.InitStack(stack, entry, arg)
	k.tasks[id] = TCB{
		ID:       id,
		Priority: priority,
		State:    StateReady,
		Stack:    stack,
		SP:       sp,
		Entry:    entry,
		Arg:      arg,
	}
	k.ready.push(priority, id)

	if k.started {
		k.evaluatePreemption()
	}
	return nil
}

// Start selects the most urgent Ready task (normally the highest-priority
// created task, or the idle task if none) and hands control to the
// port's launch primitive. Control does not return on real hardware.
func (k *Kernel) Start() error {
	if !k.initialized {
		return ErrNotInitialized
	}
	if k.started {
		return ErrAlreadyStarted
	}

	winner, ok := k.ready.popHighest()
	if !ok {
		k.fatal("scheduler: no ready task at start (idle task must always be ready)")
		return nil
	}

	tcb := &k.tasks[winner]
	tcb.State = StateRunning
	k.currentID = winner
	k.started = true

	k.port.EnableTickSource()
	k.port.LaunchFirstTask(tcb.SP)
	return nil
}

// Sleep implements spec.md §4.4. ticks == 0 is a yield: the caller stays
// Ready and the scheduler picks the most urgent Ready task, which may be
// the caller itself. ticks > 0 puts the caller to sleep until the tick
// counter reaches now+ticks.
func (k *Kernel) Sleep(ticks uint64) {
	if !k.started {
		return
	}
	if ticks == 0 {
		k.evaluateYield()
		return
	}

	cur := k.currentTCB()
	cur.State = StateSleeping
	cur.WakeTick = k.tickCount + ticks
	k.evaluateSleep()
}

// Tick is called by the port from its periodic timer interrupt handler
// (spec.md §4.4). It advances the tick counter, wakes any sleeper whose
// wake tick has been reached, and requests a switch if doing so exposed a
// more urgent Ready task than the one currently Running.
func (k *Kernel) Tick() {
	if !k.started {
		return
	}
	k.tickCount++

	woke := false
	for i := range k.tasks {
		t := &k.tasks[i]
		if t.State == StateSleeping && t.WakeTick <= k.tickCount {
			t.State = StateReady
			k.ready.push(t.Priority, t.ID)
			woke = true
		}
	}
	if woke {
		k.evaluatePreemption()
	}
}

// CurrentTask returns the id of the Running task.
func (k *Kernel) CurrentTask() (int, error) {
	if !k.started {
		return 0, ErrNotStarted
	}
	return k.currentID, nil
}

// TickCount returns the number of ticks delivered since Start, frozen at
// zero before Start.
func (k *Kernel) TickCount() uint64 {
	return k.tickCount
}

// TickRateHz publishes the configured tick rate (spec.md §6).
func (k *Kernel) TickRateHz() uint32 {
	return k.cfg.TickRateHz
}

// TaskState reports a task's current state, for diagnostics and tests.
func (k *Kernel) TaskState(id int) (State, error) {
	if id < 0 || id >= len(k.tasks) {
		return StateUnused, ErrInvalidID
	}
	return k.tasks[id].State, nil
}
