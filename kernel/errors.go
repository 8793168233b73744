package kernel

import "errors"

// Configuration errors (spec.md §7): returned synchronously from the
// operation that caused them, kernel state left unmutated. Never panics —
// these are recoverable by the caller.
var (
	ErrAlreadyInitialized = errors.New("kernel: already initialized")
	ErrNotInitialized     = errors.New("kernel: not initialized")
	ErrAlreadyStarted     = errors.New("kernel: already started")
	ErrNotStarted         = errors.New("kernel: not started")
	ErrDuplicateTask      = errors.New("kernel: duplicate task id")
	ErrReservedPriority   = errors.New("kernel: priority reserved for idle task")
	ErrInvalidID          = errors.New("kernel: task id out of range")
	ErrInvalidConfig      = errors.New("kernel: invalid configuration")
)
