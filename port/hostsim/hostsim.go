// Package hostsim is a demonstration kernel.Port that actually runs task
// bodies as goroutines on the host, for cmd/rucosdemo and manual
// experimentation. It is not part of the portable core's contract (spec.md
// names the real port as out of scope) — the relationship to kernel.Kernel
// is the same one SUPRAXCore.Cycle() has to the instruction set it drives:
// a convenience harness, not the thing being specified.
//
// Go has no cheap coroutines, so "only one task logically runs at a time"
// is approximated with a baton passed over per-task channels: whichever
// goroutine currently holds the baton is the only one allowed to call into
// the kernel or run task-visible code. A genuine preemptive port (see
// port/cortexm) can interrupt a task mid-instruction; hostsim cannot, and
// does not try to — a tick-triggered switch is only actually handed off the
// next time the previously-running task reaches one of its own checkpoints
// (a Sleep call, or one idle-loop iteration). That is an honest limitation
// of simulating preemption without real interrupts, not a scheduling bug.
package hostsim

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bbrown1867/rucos/kernel"
)

type taskRunner struct {
	id    int
	sp    kernel.StackPointer
	entry kernel.EntryFunc
	arg   uint32
	turn  chan struct{}
}

// Port drives a kernel.Kernel using one goroutine per task.
type Port struct {
	// Kernel is set by the caller after both Port and Kernel are
	// constructed, since kernel.New needs a Port and Port needs the
	// Kernel back to call PickNext — the same mutually-referential
	// wiring port/mockport uses.
	Kernel *kernel.Kernel

	Log *logrus.Entry

	kernelMu sync.Mutex
	pending  bool

	nextSP     uintptr
	pendingID  int
	runners    map[kernel.StackPointer]*taskRunner
	currentSP  kernel.StackPointer
	idleSP     kernel.StackPointer
	haveIdleSP bool

	tickStop          chan struct{}
	tickSourceEnabled bool

	RequestSwitchCalls  int
	LaunchFirstTaskCall int
}

// New returns a ready-to-use host simulation port. Assign log to a
// configured *logrus.Entry, or leave nil to use logrus's standard logger.
func New(log *logrus.Entry) *Port {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Port{
		Log:      log,
		runners:  make(map[kernel.StackPointer]*taskRunner),
		tickStop: make(chan struct{}),
	}
}

// PrepareTask labels the next InitStack call with a task id, purely for log
// output — call it immediately before kernel.Init / kernel.CreateTask.
func (p *Port) PrepareTask(id int) {
	p.kernelMu.Lock()
	defer p.kernelMu.Unlock()
	p.pendingID = id
}

// InitStack spawns the goroutine that will run entry once scheduled. It
// never touches the supplied stack slice; hostsim tasks run on their own
// real goroutine stacks.
func (p *Port) InitStack(stack []byte, entry kernel.EntryFunc, arg uint32) kernel.StackPointer {
	p.kernelMu.Lock()
	p.nextSP++
	sp := kernel.StackPointer(p.nextSP)
	id := p.pendingID
	r := &taskRunner{id: id, sp: sp, entry: entry, arg: arg, turn: make(chan struct{}, 1)}
	p.runners[sp] = r
	if !p.haveIdleSP {
		p.idleSP = sp
		p.haveIdleSP = true
	}
	p.kernelMu.Unlock()

	go p.runTask(r)
	return sp
}

func (p *Port) runTask(r *taskRunner) {
	<-r.turn
	r.entry(r.arg)
	p.Log.WithField("task_id", r.id).Warn("task entry returned; parking goroutine")
	select {}
}

// RequestSwitch is called synchronously from inside a kernel entry point
// while the caller already holds kernelMu (Sleep's wrapper, or the tick
// loop) — it must not itself lock kernelMu.
func (p *Port) RequestSwitch() {
	p.pending = true
	p.RequestSwitchCalls++
}

// LaunchFirstTask hands the baton to the first scheduled task and returns
// once it has been launched; unlike real hardware, hostsim lets Start()
// return so the caller can keep driving ticks and logging.
func (p *Port) LaunchFirstTask(sp kernel.StackPointer) {
	p.kernelMu.Lock()
	p.LaunchFirstTaskCall++
	p.currentSP = sp
	r := p.runners[sp]
	p.kernelMu.Unlock()

	p.Log.WithField("task_id", r.id).Debug("launching first task")
	r.turn <- struct{}{}
}

// EnableTickSource starts a goroutine delivering kernel ticks at rate Hz,
// read from the bound kernel's configured tick rate once Start has been
// called.
func (p *Port) EnableTickSource() {
	p.kernelMu.Lock()
	p.tickSourceEnabled = true
	p.kernelMu.Unlock()

	hz := p.Kernel.TickRateHz()
	if hz == 0 {
		hz = 1000
	}
	go p.tickLoop(time.Second / time.Duration(hz))
}

func (p *Port) tickLoop(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-p.tickStop:
			return
		case <-t.C:
			p.kernelMu.Lock()
			p.Kernel.Tick()
			pending := p.pending
			p.kernelMu.Unlock()

			if pending {
				// The switch stays pending; the running task commits it at
				// its next checkpoint (checkpointLocked).
				p.Log.Debug("tick woke a more urgent task")
			}
		}
	}
}

// Stop halts the tick-delivering goroutine. Intended for tests and clean
// CLI shutdown; a real port never stops ticking.
func (p *Port) Stop() {
	close(p.tickStop)
}

// Sleep is what task bodies should call instead of kernel.Kernel.Sleep
// directly: it forwards to the kernel and then parks the calling goroutine
// if the scheduling decision moved the baton elsewhere.
func (p *Port) Sleep(ticks uint64) {
	p.kernelMu.Lock()
	mySP := p.currentSP
	p.Kernel.Sleep(ticks)
	p.checkpointLocked(mySP)
}

// CreateTask wraps kernel.Kernel.CreateTask for callers adding a task
// after Start — a bare task body must never call kernel.Kernel.CreateTask
// directly post-Start, since that would touch kernel state without
// kernelMu held while some other task's goroutine may be mid-Sleep. Before
// Start, calling this (or kernel.Kernel.CreateTask directly) is equally
// safe, since nothing else is running yet.
func (p *Port) CreateTask(id int, priority uint8, stack []byte, entry kernel.EntryFunc, arg uint32) error {
	p.kernelMu.Lock()
	p.pendingID = id
	if err := p.Kernel.CreateTask(id, priority, stack, entry, arg); err != nil {
		p.kernelMu.Unlock()
		return err
	}

	if !p.pending {
		p.kernelMu.Unlock()
		return nil
	}
	p.pending = false
	_, nextSP := p.Kernel.PickNext()
	p.currentSP = nextSP
	next := p.runners[nextSP]
	p.kernelMu.Unlock()

	select {
	case next.turn <- struct{}{}:
	default:
	}
	return nil
}

// IdleHook returns the function to pass as Kernel.Init's idleHook: a
// checkpoint on every spin of the idle loop, since idle never calls Sleep
// and is otherwise the one task that would never notice it lost the baton.
func (p *Port) IdleHook() func() {
	return func() {
		p.kernelMu.Lock()
		p.checkpointLocked(p.idleSP)
	}
}

// checkpointLocked must be called with kernelMu held; it commits any
// pending switch, wakes the incoming task, releases kernelMu, and parks the
// calling goroutine (identified by mySP) if it is no longer current.
func (p *Port) checkpointLocked(mySP kernel.StackPointer) {
	if p.pending {
		p.pending = false
		_, nextSP := p.Kernel.PickNext()
		p.currentSP = nextSP
		if nextSP != mySP {
			next := p.runners[nextSP]
			p.kernelMu.Unlock()
			select {
			case next.turn <- struct{}{}:
			default:
			}
			p.parkIfNotCurrent(mySP)
			return
		}
	}
	p.kernelMu.Unlock()
	p.parkIfNotCurrent(mySP)
}

func (p *Port) parkIfNotCurrent(mySP kernel.StackPointer) {
	p.kernelMu.Lock()
	cur := p.currentSP
	me := p.runners[mySP]
	p.kernelMu.Unlock()

	if cur == mySP {
		return
	}
	<-me.turn
}
