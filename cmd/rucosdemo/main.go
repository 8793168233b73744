// Command rucosdemo drives the concrete scenarios from spec.md §8 against
// port/hostsim and prints the scheduling trace, as a worked example of
// wiring a kernel.Kernel to a running port — the example spec.md's
// original source would have shipped, had it survived retrieval (see
// original_source/_INDEX.md).
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bbrown1867/rucos/kernel"
	"github.com/bbrown1867/rucos/port/hostsim"
)

var (
	flagScenario string
	flagTickHz   uint32
	flagLogLevel string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rucosdemo",
		Short: "Run RuCOS scheduling scenarios against the host simulation port",
		RunE:  runDemo,
	}
	cmd.Flags().StringVar(&flagScenario, "scenario", "all",
		fmt.Sprintf("scenario to run (%s, or all)", scenarioNameList()))
	cmd.Flags().Uint32Var(&flagTickHz, "tick-rate", 1000, "kernel tick rate in Hz")
	cmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "trace|debug|info|warn|error")
	return cmd
}

func runDemo(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(flagLogLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", flagLogLevel, err)
	}
	logger := logrus.New()
	logger.SetLevel(level)

	if flagScenario == "all" {
		for _, s := range scenarios {
			logger.WithField("scenario", s.name).Info("running scenario")
			if err := s.run(logger, flagTickHz); err != nil {
				return fmt.Errorf("scenario %s: %w", s.name, err)
			}
		}
		return nil
	}

	s, ok := scenarioByName(flagScenario)
	if !ok {
		return fmt.Errorf("unknown scenario %q (want one of: %s)", flagScenario, scenarioNameList())
	}
	logger.WithField("scenario", s.name).Info("running scenario")
	return s.run(logger, flagTickHz)
}

func newDemoKernel(logger *logrus.Logger, tickHz uint32) (*kernel.Kernel, *hostsim.Port, error) {
	cfg := kernel.DefaultConfig()
	cfg.TickRateHz = tickHz

	p := hostsim.New(logrus.NewEntry(logger))
	k, err := kernel.New(cfg, p)
	if err != nil {
		return nil, nil, err
	}
	p.Kernel = k

	p.PrepareTask(int(idleTaskID))
	if err := k.Init(make([]byte, 4096), p.IdleHook()); err != nil {
		return nil, nil, err
	}
	return k, p, nil
}

const idleTaskID = 0
