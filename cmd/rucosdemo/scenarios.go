package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bbrown1867/rucos/kernel"
)

type demoScenario struct {
	name string
	run  func(logger *logrus.Logger, tickHz uint32) error
}

var scenarios = []demoScenario{
	{"single-task-runs", scenarioSingleTaskRuns},
	{"priority-preemption", scenarioPriorityPreemption},
	{"sleep-and-wake", scenarioSleepAndWake},
	{"yield-among-equals", scenarioYieldAmongEquals},
	{"idle-when-all-asleep", scenarioIdleWhenAllAsleep},
	{"duplicate-rejection", scenarioDuplicateRejection},
}

func scenarioNameList() string {
	out := ""
	for i, s := range scenarios {
		if i > 0 {
			out += ", "
		}
		out += s.name
	}
	return out
}

func scenarioByName(name string) (demoScenario, bool) {
	for _, s := range scenarios {
		if s.name == name {
			return s, true
		}
	}
	return demoScenario{}, false
}

const waitTimeout = 2 * time.Second

func await(ch <-chan struct{}, what string) error {
	select {
	case <-ch:
		return nil
	case <-time.After(waitTimeout):
		return fmt.Errorf("timed out waiting for %s", what)
	}
}

// scenarioSingleTaskRuns mirrors spec.md §8 scenario 1.
func scenarioSingleTaskRuns(logger *logrus.Logger, tickHz uint32) error {
	k, p, err := newDemoKernel(logger, tickHz)
	if err != nil {
		return err
	}
	defer p.Stop()

	ran := make(chan struct{}, 1)
	p.PrepareTask(1)
	if err := k.CreateTask(1, 10, make([]byte, 4096), func(uint32) {
		ran <- struct{}{}
		for {
			p.Sleep(1)
		}
	}, 0); err != nil {
		return err
	}

	if err := k.Start(); err != nil {
		return err
	}
	if err := await(ran, "task 1 to run"); err != nil {
		return err
	}

	cur, err := k.CurrentTask()
	if err != nil {
		return err
	}
	if cur != 1 {
		return fmt.Errorf("current task = %d, want 1", cur)
	}
	logger.Info("single task ran as expected")
	return nil
}

// scenarioPriorityPreemption mirrors spec.md §8 scenario 2: T2 (prio 5) is
// created from within T1 (prio 10) once T1 is already running.
func scenarioPriorityPreemption(logger *logrus.Logger, tickHz uint32) error {
	k, p, err := newDemoKernel(logger, tickHz)
	if err != nil {
		return err
	}
	defer p.Stop()

	t1Running := make(chan struct{}, 1)
	t2Running := make(chan struct{}, 1)

	p.PrepareTask(1)
	if err := k.CreateTask(1, 10, make([]byte, 4096), func(uint32) {
		t1Running <- struct{}{}
		if err := p.CreateTask(2, 5, make([]byte, 4096), func(uint32) {
			t2Running <- struct{}{}
			for {
				p.Sleep(1)
			}
		}, 0); err != nil {
			logger.WithError(err).Error("create T2 from T1 failed")
		}
		for {
			p.Sleep(1)
		}
	}, 0); err != nil {
		return err
	}

	if err := k.Start(); err != nil {
		return err
	}
	if err := await(t1Running, "T1 to run"); err != nil {
		return err
	}
	if err := await(t2Running, "T2 to be scheduled after preemption"); err != nil {
		return err
	}
	logger.Info("T2 preempted T1 as expected")
	return nil
}

// scenarioSleepAndWake mirrors spec.md §8 scenario 3.
func scenarioSleepAndWake(logger *logrus.Logger, tickHz uint32) error {
	k, p, err := newDemoKernel(logger, tickHz)
	if err != nil {
		return err
	}
	defer p.Stop()

	woke := make(chan struct{}, 1)
	p.PrepareTask(1)
	if err := k.CreateTask(1, 10, make([]byte, 4096), func(uint32) {
		p.Sleep(5)
		woke <- struct{}{}
		for {
			p.Sleep(1)
		}
	}, 0); err != nil {
		return err
	}

	if err := k.Start(); err != nil {
		return err
	}

	tickPeriod := time.Second / time.Duration(tickHz)
	select {
	case <-woke:
		return errors.New("T1 woke before tick 5")
	case <-time.After(2 * tickPeriod):
	}

	if err := await(woke, "T1 to wake by tick 5"); err != nil {
		return err
	}
	logger.Info("T1 slept 5 ticks and woke as expected")
	return nil
}

// scenarioYieldAmongEquals mirrors spec.md §8 scenario 4.
func scenarioYieldAmongEquals(logger *logrus.Logger, tickHz uint32) error {
	k, p, err := newDemoKernel(logger, tickHz)
	if err != nil {
		return err
	}
	defer p.Stop()

	turns := make(chan int, 16)
	body := func(id int) kernel.EntryFunc {
		return func(uint32) {
			for i := 0; i < 3; i++ {
				turns <- id
				p.Sleep(0)
			}
			for {
				p.Sleep(1)
			}
		}
	}

	p.PrepareTask(1)
	if err := k.CreateTask(1, 10, make([]byte, 4096), body(1), 0); err != nil {
		return err
	}
	p.PrepareTask(2)
	if err := k.CreateTask(2, 10, make([]byte, 4096), body(2), 0); err != nil {
		return err
	}

	if err := k.Start(); err != nil {
		return err
	}

	seen := map[int]int{}
	for i := 0; i < 6; i++ {
		select {
		case id := <-turns:
			seen[id]++
		case <-time.After(waitTimeout):
			return errors.New("timed out waiting for a yield turn")
		}
	}
	if seen[1] == 0 || seen[2] == 0 {
		return fmt.Errorf("one task starved the other: seen=%v", seen)
	}
	logger.WithField("turns", seen).Info("T1 and T2 alternated without starvation")
	return nil
}

// scenarioIdleWhenAllAsleep mirrors spec.md §8 scenario 5.
func scenarioIdleWhenAllAsleep(logger *logrus.Logger, tickHz uint32) error {
	k, p, err := newDemoKernel(logger, tickHz)
	if err != nil {
		return err
	}
	defer p.Stop()

	woke := make(chan struct{}, 1)
	p.PrepareTask(1)
	if err := k.CreateTask(1, 10, make([]byte, 4096), func(uint32) {
		p.Sleep(100)
		woke <- struct{}{}
		for {
			p.Sleep(1)
		}
	}, 0); err != nil {
		return err
	}

	if err := k.Start(); err != nil {
		return err
	}

	tickPeriod := time.Second / time.Duration(tickHz)
	select {
	case <-woke:
		return errors.New("T1 woke before tick 100")
	case <-time.After(30 * tickPeriod):
	}

	if err := await(woke, "T1 to wake by tick 100"); err != nil {
		return err
	}
	logger.Info("idle task ran until T1 woke at tick 100, as expected")
	return nil
}

// scenarioDuplicateRejection mirrors spec.md §8 scenario 6.
func scenarioDuplicateRejection(logger *logrus.Logger, tickHz uint32) error {
	k, p, err := newDemoKernel(logger, tickHz)
	if err != nil {
		return err
	}
	defer p.Stop()

	p.PrepareTask(1)
	if err := k.CreateTask(1, 10, make([]byte, 4096), func(uint32) {
		for {
			p.Sleep(1)
		}
	}, 0); err != nil {
		return err
	}

	before, err := k.TaskState(1)
	if err != nil {
		return err
	}

	err = k.CreateTask(1, 20, make([]byte, 4096), func(uint32) {}, 1)
	if !errors.Is(err, kernel.ErrDuplicateTask) {
		return fmt.Errorf("second create(id=1) returned %v, want ErrDuplicateTask", err)
	}

	after, err := k.TaskState(1)
	if err != nil {
		return err
	}
	if before != after {
		return fmt.Errorf("task 1 state changed across rejected create: %v -> %v", before, after)
	}
	logger.Info("duplicate create was rejected without mutating task state")
	return nil
}
