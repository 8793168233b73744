package kernel

// State is one of the four task states named in spec.md §3.
type State uint8

const (
	// StateUnused marks a task-table slot that has never been populated
	// by CreateTask. Not one of spec.md's four task states — it is the
	// table's "empty slot" sentinel, distinguishing "never created" from
	// any live state.
	StateUnused State = iota
	StateReady
	StateRunning
	StateSleeping
	StateSuspended
)

func (s State) String() string {
	switch s {
	case StateUnused:
		return "unused"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateSleeping:
		return "sleeping"
	case StateSuspended:
		return "suspended"
	default:
		return "invalid"
	}
}

// TCB is a task control block: a fixed-size record describing one task
// (spec.md §3). The id doubles as the task table index, so it is never
// stored redundantly beyond what makes debugging easier.
type TCB struct {
	// ID is the dense small integer assigned at creation.
	ID int

	// Priority is a small unsigned integer; lower value = more urgent.
	Priority uint8

	// State is one of {Ready, Running, Sleeping, Suspended}, or Unused
	// for a slot that has never been populated.
	State State

	// Stack is the borrowed, exclusive byte region supplied at creation.
	// The kernel never frees, resizes, or reads it directly — only the
	// port's InitStack callback touches its contents.
	Stack []byte

	// SP is the opaque stack pointer, written by the port's context-save
	// routine and consumed by its context-restore routine.
	SP StackPointer

	// Entry and Arg are the task's never-returning entry point and its
	// single 32-bit argument, retained so the port can re-synthesize the
	// initial frame and so diagnostics can name the running task.
	Entry EntryFunc
	Arg   uint32

	// WakeTick is the absolute tick count at which a Sleeping task
	// becomes Ready. Unused in any other state.
	WakeTick uint64
}
