package cli

import (
	"fmt"

	"github.com/me/schedsim/internal/engine"
	"github.com/me/schedsim/internal/scenario"
	"github.com/me/schedsim/pkg/model"
	"github.com/spf13/cobra"
)

func newSimulateCmd() *cobra.Command {
	var (
		flagPolicy   string
		flagQuantum  int
		flagMaxTicks int
	)

	cmd := &cobra.Command{
		Use:   "simulate [scenario.yaml]",
		Short: "Run a simulation locally, without a server",
		Long:  "Simulate runs a scenario to completion in-process and prints the per-process results. Without a file argument the built-in demo scenario is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sf *scenario.File
			var err error
			if len(args) == 1 {
				sf, err = scenario.Load(args[0])
				if err != nil {
					return err
				}
			} else {
				sf = scenario.Default()
			}

			policy := sf.DefaultPolicy()
			if flagPolicy != "" {
				policy, err = model.ParsePolicy(flagPolicy)
				if err != nil {
					return err
				}
			}
			quantum := sf.Quantum
			if flagQuantum > 0 {
				quantum = flagQuantum
			}

			snap, err := engine.Reset(sf.Specs(), engine.WithQuantum(quantum))
			if err != nil {
				return err
			}

			logger.Debug("simulation start", "scenario", sf.Name, "policy", policy, "quantum", snap.Quantum)

			ticks := 0
			for !engine.IsFinished(snap) {
				snap = engine.Tick(snap, policy)
				ticks++
				if flagMaxTicks > 0 && ticks >= flagMaxTicks {
					return fmt.Errorf("simulation did not finish within %d ticks", flagMaxTicks)
				}
			}

			fmt.Printf("Scenario: %s (%d processes)\n", sf.Name, len(snap.Processes))
			if policy == model.PolicyRoundRobin {
				fmt.Printf("Policy:   %s (quantum %d)\n", policy, snap.Quantum)
			} else {
				fmt.Printf("Policy:   %s\n", policy)
			}
			fmt.Printf("Finished in %d ticks\n\n", snap.Clock)

			printProcessTable(snap.Processes)
			m := engine.Metrics(snap)
			printMetrics(&m)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagPolicy, "policy", "", "Scheduling policy (FCFS, SJF, PRIORITY, ROUND_ROBIN); overrides the scenario default")
	cmd.Flags().IntVar(&flagQuantum, "quantum", 0, "Round-robin time slice in ticks; overrides the scenario default")
	cmd.Flags().IntVar(&flagMaxTicks, "max-ticks", 100000, "Abort if the simulation has not finished after this many ticks (0 = unbounded)")

	return cmd
}

// printProcessTable prints the per-process results. Stamps are blank for
// processes that have not completed.
func printProcessTable(procs []*model.Process) {
	fmt.Printf("%-8s  %-12s  %7s  %5s  %8s  %-9s  %10s  %10s  %7s\n",
		"ID", "NAME", "ARRIVAL", "BURST", "PRIORITY", "STATE", "COMPLETION", "TURNAROUND", "WAITING")
	for _, p := range procs {
		fmt.Printf("%-8s  %-12s  %7d  %5d  %8d  %-9s  %10s  %10s  %7s\n",
			p.ID, p.Name, p.ArrivalTime, p.BurstTime, p.Priority, p.State,
			fmtStamp(p.CompletionTime), fmtStamp(p.TurnaroundTime), fmtStamp(p.WaitingTime))
	}
}

func printMetrics(m *model.Metrics) {
	if m == nil {
		return
	}
	fmt.Printf("\nCompleted:          %d/%d\n", m.Completed, m.Total)
	fmt.Printf("Average turnaround: %.2f\n", m.AvgTurnaround)
	fmt.Printf("Average waiting:    %.2f\n", m.AvgWaiting)
}

func fmtStamp(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
