// Package mockport is the host-testable double named in spec.md §8: a
// port that records every RequestSwitch, LaunchFirstTask and InitStack
// call instead of touching real hardware, so the kernel's scheduling
// decisions can be driven and inspected one step at a time from a test.
package mockport

import (
	"sync"

	"github.com/bbrown1867/rucos/kernel"
)

// StackFrame records one InitStack call, standing in for whatever a real
// port would have written onto the task's stack.
type StackFrame struct {
	Entry kernel.EntryFunc
	Arg   uint32
}

// Port is a kernel.Port that never touches hardware. RequestSwitch only
// sets a pending flag and counts the call — coalescing multiple requests
// into one exactly as spec.md §4.6 requires — and tests call Service to
// simulate the context-switch ISR firing, which calls back into the
// kernel's PickNext.
type Port struct {
	mu sync.Mutex

	// Kernel is set by the test after constructing both the kernel and
	// the port, since kernel.New needs a Port and Service needs a
	// *kernel.Kernel — the two are mutually referential at construction.
	Kernel *kernel.Kernel

	nextSP uintptr

	RequestSwitchCalls  int
	SwitchPending       bool
	LaunchFirstTaskCall int
	LaunchedSP          kernel.StackPointer
	TickSourceEnabled   bool
	Stacks              map[kernel.StackPointer]StackFrame
}

// New returns a ready-to-use mock port. Call p.Kernel = k once the kernel
// bound to it has been constructed.
func New() *Port {
	return &Port{
		Stacks: make(map[kernel.StackPointer]StackFrame),
	}
}

// InitStack synthesizes nothing real: it hands out a unique opaque
// StackPointer and remembers which entry/arg it stands for, so tests can
// assert a task was initialized with the body they expect.
func (p *Port) InitStack(stack []byte, entry kernel.EntryFunc, arg uint32) kernel.StackPointer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextSP++
	sp := kernel.StackPointer(p.nextSP)
	p.Stacks[sp] = StackFrame{Entry: entry, Arg: arg}
	return sp
}

// RequestSwitch pends a switch. Idempotent: a second call before Service
// runs is a no-op on the pending flag, matching the coalescing the real
// PendSV interrupt provides.
func (p *Port) RequestSwitch() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.RequestSwitchCalls++
	p.SwitchPending = true
}

// LaunchFirstTask records the hand-off and returns, unlike a real port,
// so Start() can return control to the test.
func (p *Port) LaunchFirstTask(sp kernel.StackPointer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.LaunchFirstTaskCall++
	p.LaunchedSP = sp
}

// EnableTickSource just records that it was called.
func (p *Port) EnableTickSource() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TickSourceEnabled = true
}

// Service simulates the context-switch interrupt firing: if a switch is
// pending, it calls back into the kernel's PickNext and clears the
// pending flag. Returns false if no switch was pending.
func (p *Port) Service() bool {
	p.mu.Lock()
	pending := p.SwitchPending
	p.SwitchPending = false
	p.mu.Unlock()

	if !pending {
		return false
	}
	p.Kernel.PickNext()
	return true
}
