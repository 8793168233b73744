// Package kernel implements the portable RuCOS scheduler: the task table,
// ready-queue discipline, tick/sleep bookkeeping, and the port contract a
// platform collaborator must satisfy. It contains no platform instructions,
// no interrupt masking, and no unsafe storage tricks — it is a pure state
// machine over task records, safe to compile and test on the host.
package kernel

// MaxBitmapWidth bounds MaxTasks and NumPriorities: the ready set tracks
// per-priority occupancy with a single uint64 bitmap word, the same
// width the teacher's reservation-station scheduler uses for its
// occupied/ready bitmaps.
const MaxBitmapWidth = 64

// idleTaskID is the dense task id the idle task is always installed at by
// Init, per spec.md §4.1 ("idle task created at id 0").
const idleTaskID = 0

// Config is the kernel's construction-time configuration, standing in for
// the compile-time constants spec.md §6 lists (maximum number of tasks,
// tick rate, number of priority levels, the idle task's reserved
// priority). A hosted Go build resolves these at construction instead of
// at compile time; a real port still wires its board's constants through
// here once at startup, so the values are effectively just as fixed.
type Config struct {
	// MaxTasks is the fixed capacity of the task table: dense ids in
	// [0, MaxTasks).
	MaxTasks int

	// TickRateHz is the configured periodic tick source frequency,
	// published to applications via (*Kernel).TickRateHz.
	TickRateHz uint32

	// NumPriorities is the number of distinct priority levels.
	NumPriorities int

	// IdlePriority is the priority value reserved for the idle task;
	// CreateTask rejects it with ErrReservedPriority.
	IdlePriority uint8
}

// DefaultConfig returns a reasonable configuration for host testing and
// the bundled demo: 32 tasks, a 1kHz tick, and 32 priority levels with the
// idle task pinned to the least urgent one.
func DefaultConfig() Config {
	return Config{
		MaxTasks:      32,
		TickRateHz:    1000,
		NumPriorities: 32,
		IdlePriority:  31,
	}
}

func (c Config) validate() error {
	if c.MaxTasks <= 0 || c.MaxTasks > MaxBitmapWidth {
		return ErrInvalidConfig
	}
	if c.NumPriorities <= 0 || c.NumPriorities > MaxBitmapWidth {
		return ErrInvalidConfig
	}
	if int(c.IdlePriority) >= c.NumPriorities {
		return ErrInvalidConfig
	}
	if c.TickRateHz == 0 {
		return ErrInvalidConfig
	}
	return nil
}
