package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/azargarov/jobqueue"
	"github.com/azargarov/jobqueue/internal/config"
	"github.com/azargarov/jobqueue/report"
)

func newSimulateCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate",
		Short: "Submit random jobs concurrently and run aging/expiry ticks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), *configFile)
			if err != nil {
				return err
			}
			return runSimulation(cmd, cfg)
		},
	}
}

func runSimulation(cmd *cobra.Command, cfg config.Config) error {
	metrics := &jobqueue.AtomicMetrics{}
	opts := cfg.Options()
	opts.Metrics = metrics
	opts.Context = cmd.Context()

	m, err := jobqueue.NewManager(opts)
	if err != nil {
		return err
	}
	p := report.NewPrinter(cmd.OutOrStdout(), cfg.Color)

	// Draw from the bounds the manager actually enforces.
	eff := m.Options()
	entries := make([]jobqueue.Submission, cfg.Submissions)
	top := min(eff.MinPriority+2, eff.MaxPriority)
	for i := range entries {
		entries[i] = jobqueue.Submission{
			SubmitterID: fmt.Sprintf("USER-%d", i+1),
			Priority:    eff.MinPriority + rand.IntN(top-eff.MinPriority+1),
		}
	}
	for _, r := range m.SubmitMany(entries) {
		if err := p.Result(r); err != nil {
			return err
		}
	}
	if err := p.Status(m.Status()); err != nil {
		return err
	}

	logs, simErr := jobqueue.NewSimulator(m).Simulate(cmd.Context(), cfg.Ticks, cfg.TickDuration)
	for _, l := range logs {
		if err := p.Tick(l); err != nil {
			return err
		}
	}
	if simErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "simulation stopped: %v\n", simErr)
	}

	if err := p.Jobs(m.Snapshot()); err != nil {
		return err
	}
	if cfg.Drain {
		if err := drain(m, p); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "submitted=%d rejected=%d aged=%d expired=%d withdrawn=%d queued=%d\n",
		metrics.Submitted(), metrics.Rejected(), metrics.Aged(), metrics.Expired(), metrics.Withdrawn(), metrics.Queued())
	return err
}

// drain withdraws jobs until the queue reports empty, then prints the
// final status.
func drain(m *jobqueue.Manager, p *report.Printer) error {
	for {
		j, err := m.Withdraw()
		if errors.Is(err, jobqueue.ErrEmptyBuffer) {
			break
		}
		if err != nil {
			return err
		}
		if err := p.Dequeued(j); err != nil {
			return err
		}
	}
	return p.Status(m.Status())
}
