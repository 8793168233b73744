//go:build cortexm

// Package cortexm is a reference sketch of a real Cortex-M port, named out
// of scope by spec.md §1 ("the kernel does not ship a port for any specific
// microcontroller"). It is never built by a normal `go build ./...` or
// `go test ./...` — the cortexm build tag keeps it out of the default set,
// since it references registers and a linker layout no host toolchain has.
// It exists to show the shape of the seam kernel.Port expects a real port
// to fill, the way andypeng2015-tinygo's riscv/qemu runtime file shows the
// shape of a real interrupt-driven scheduler backend: volatile MMIO
// registers, a naked exception entry point, and a critical-section
// primitive built on the core's own interrupt-mask register.
package cortexm

import (
	"unsafe"

	"github.com/bbrown1867/rucos/kernel"
)

// Memory-mapped System Control Block registers a real port would use to
// pend PendSV and to reconfigure SysTick. Addresses per the ARMv7-M
// architecture reference manual.
var (
	icsr      = (*uint32)(unsafe.Pointer(uintptr(0xE000ED04))) // Interrupt Control and State Register
	systickCSR = (*uint32)(unsafe.Pointer(uintptr(0xE000E010))) // SysTick Control and Status Register
	systickRVR = (*uint32)(unsafe.Pointer(uintptr(0xE000E014))) // SysTick Reload Value Register
)

const (
	icsrPendSVSet uint32 = 1 << 28
)

// Port implements kernel.Port against real Cortex-M hardware. The zero
// value is usable; CPUFreqHz must be set before EnableTickSource.
type Port struct {
	CPUFreqHz uint32
}

// InitStack synthesizes the exception return stack frame PendSV needs
// (spec.md §4.6: "prepare the register/stack state needed for that task to
// begin, or resume, running"). A real implementation lays out r0-r3, r12,
// lr, pc, xpsr (the hardware-stacked frame) plus r4-r11 (the
// software-stacked frame pushed by the port's own PendSV handler prologue)
// at the top of stack, and returns the resulting stack pointer.
//
// TODO(cortexm): write the sixteen-word initial frame described above;
// needs the exact `.section .text` naked-function PendSV handler this
// stack layout must match, which does not exist yet in this tree.
func (p *Port) InitStack(stack []byte, entry kernel.EntryFunc, arg uint32) kernel.StackPointer {
	panic("cortexm: InitStack not implemented — see TODO above")
}

// RequestSwitch pends the PendSV exception, the standard ARM Cortex-M
// technique for a low-priority, always-pendable context switch that never
// preempts a higher-priority ISR.
func (p *Port) RequestSwitch() {
	*icsr = icsrPendSVSet
}

// LaunchFirstTask sets the process stack pointer to sp and branches into an
// exception return that pops the synthesized frame InitStack built,
// starting the first task as if returning from an interrupt.
//
// TODO(cortexm): needs the naked `__launch_first_task` assembly stub (MSR
// PSP, then `bx` with EXC_RETURN crafted for thread-mode/PSP) that actually
// performs the jump; Go cannot express a naked function with inline
// assembly returning into arbitrary restored register state on its own.
func (p *Port) LaunchFirstTask(sp kernel.StackPointer) {
	panic("cortexm: LaunchFirstTask not implemented — see TODO above")
}

// EnableTickSource configures SysTick to fire at a fixed 1000 Hz; the
// kernel's configured TickRateHz is not read. CPUFreqHz must already be set.
//
// TODO(cortexm): wire the actual tick rate in from the bound
// *kernel.Kernel (TickRateHz()) once the mutual-reference pattern used by
// port/mockport and port/hostsim is adopted here too.
func (p *Port) EnableTickSource() {
	if p.CPUFreqHz == 0 {
		panic("cortexm: CPUFreqHz must be set before EnableTickSource")
	}
	const tickRateHz = 1000
	reload := p.CPUFreqHz/tickRateHz - 1
	*systickRVR = reload
	const systickEnable = 1 << 0
	const systickTickInt = 1 << 1
	const systickClkSource = 1 << 2
	*systickCSR = systickEnable | systickTickInt | systickClkSource
}

// PendSVHandler is where a real port's naked PendSV exception handler would
// call back into kernel.Kernel.PickNext after saving r4-r11 of the
// outgoing task and before restoring r4-r11 of the incoming one.
//
// TODO(cortexm): this cannot be written as a normal Go function — PendSV
// must run with manual register save/restore around the call, which needs
// a `.s` file or `//go:noescape` assembly stub this tree does not have.
func PendSVHandler() {
	panic("cortexm: PendSVHandler is a sketch only, see TODO above")
}
