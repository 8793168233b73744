package kernel

// ═══════════════════════════════════════════════════════════════════════
// SCHEDULER
// ───────────────────────────────────────────────────────────────────────
// A pure function of kernel state (spec.md §4.3): given the ready set and
// the currently Running task, decide whether a different task should run
// next. The decision is recorded (nextID/switchPending) but not commited
// — committing (actually moving a task from Running to Ready or back) is
// PickNext's job, called by the port from its context-switch ISR. This
// split mirrors the teacher's own two-stage pipeline
// (ScheduleCycle0 classifies, ScheduleCycle1 selects and commits), here
// collapsed from two hardware cycles into "decide now, commit at the next
// safe boundary".
// ═══════════════════════════════════════════════════════════════════════

// evaluatePreemption is called after any event that might have made a
// more urgent task Ready (task creation, a tick that wakes a sleeper). It
// requests a switch only if the most urgent waiting task is strictly more
// urgent than the one currently Running — equal priority never preempts
// without an explicit yield, matching spec.md §4.3's three trigger points.
func (k *Kernel) evaluatePreemption() {
	winner, ok := k.ready.peekHighest()
	if !ok {
		return
	}
	cur := k.currentTCB()
	if k.tasks[winner].Priority < cur.Priority {
		k.requestSwitchTo(winner)
	}
}

// evaluateYield implements sleep(0) (spec.md §4.4): the caller remains
// Ready and the scheduler picks the most urgent waiting task — which, if
// a same-priority peer already sits at the front of the caller's own
// priority queue, is that peer (the Running caller is not in the ready
// queue, so it is never ahead of a peer that was already waiting).
// If nothing waiting is as urgent as the caller, the caller keeps
// running: a lower-priority task never gets to preempt via someone
// else's yield.
func (k *Kernel) evaluateYield() {
	cur := k.currentTCB()
	winner, ok := k.ready.peekHighest()
	if !ok || k.tasks[winner].Priority > cur.Priority {
		return
	}
	k.requestSwitchTo(winner)
}

// evaluateSleep implements sleep(n>0): the caller has already been marked
// Sleeping and removed from contention entirely, so a switch is always
// required — to the idle task if nothing else is Ready.
func (k *Kernel) evaluateSleep() {
	winner, ok := k.ready.peekHighest()
	if !ok {
		k.fatal("scheduler: no ready task available (idle task must always be ready)")
		return
	}
	k.requestSwitchTo(winner)
}

// requestSwitchTo records the pending decision and asks the port to pend
// the context-switch interrupt. Calling it again before the pending
// switch is serviced simply overwrites nextID with whatever is currently
// the best candidate — safe, because the previous candidate was never
// dequeued and remains exactly where it was.
func (k *Kernel) requestSwitchTo(next int) {
	k.nextID = next
	k.switchPending = true
	k.port.RequestSwitch()
}

// PickNext is called by the port from its context-switch interrupt
// handler (spec.md §4.6). It commits the pending scheduling decision:
// demotes the outgoing task to Ready (enqueuing it, unless it is being
// switched out because it just went Sleeping/Suspended), promotes the
// incoming task to Running, and returns where the outgoing stack pointer
// must be saved and which stack pointer to restore.
func (k *Kernel) PickNext() (prevSPSlot *StackPointer, nextSP StackPointer) {
	prev := k.currentTCB()
	next := &k.tasks[k.nextID]

	if prev.ID != next.ID {
		if prev.State == StateRunning {
			prev.State = StateReady
			k.ready.push(prev.Priority, prev.ID)
		}
		k.ready.remove(next.Priority, next.ID)
		next.State = StateRunning
		k.currentID = next.ID
	}

	k.switchPending = false
	return &prev.SP, next.SP
}
