package kernel

// StackPointer is an opaque word written by the port's context-save
// routine and consumed by its context-restore routine (spec.md §3 "saved
// stack pointer"). The core never inspects or dereferences it.
type StackPointer uintptr

// EntryFunc is a task's entry point: a function of one 32-bit argument
// that never returns. The kernel stores and forwards whatever func value it
// is given without inspecting it, so closures are accepted too (Init's own
// idle entry captures idleHook); Port.InitStack receives that func value
// and the uint32 argument word.
type EntryFunc func(arg uint32)

// Port is the seam a platform collaborator must implement (spec.md §4.6).
// Every method here is called by the kernel only from within a critical
// section the port itself established by masking interrupts; the kernel
// performs no masking of its own.
type Port interface {
	// InitStack synthesizes an initial context on stack such that
	// restoring the returned StackPointer resumes execution at
	// entry(arg) in the task's normal execution mode. stack is borrowed,
	// exclusive, and never freed or resized by the kernel.
	InitStack(stack []byte, entry EntryFunc, arg uint32) StackPointer

	// RequestSwitch pends the context-switch interrupt (PendSV on
	// Cortex-M). Must be idempotent: repeated calls before the pending
	// switch is serviced coalesce into a single switch.
	RequestSwitch()

	// LaunchFirstTask transfers control to the first task's stack. On
	// real hardware this never returns; host ports may return, which is
	// what makes the core testable without a platform.
	LaunchFirstTask(sp StackPointer)

	// EnableTickSource starts the periodic timer that will go on to call
	// (*Kernel).Tick. Invoked once, from (*Kernel).Start, before the
	// first task is launched.
	EnableTickSource()
}
