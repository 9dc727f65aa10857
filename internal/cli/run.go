package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/me/schedsim/pkg/model"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		flagPolicy   string
		flagQuantum  int
		flagInterval int
		flagWatch    bool
	)

	cmd := &cobra.Command{
		Use:   "run <scenario_id>",
		Short: "Start a simulation run on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"scenario_id": args[0],
			}
			if flagPolicy != "" {
				body["policy"] = flagPolicy
			}
			if flagQuantum > 0 {
				body["quantum"] = flagQuantum
			}
			if flagInterval > 0 {
				body["interval_ms"] = flagInterval
			}

			resp, err := client.Post("/api/v1/runs/", body)
			if err != nil {
				return fmt.Errorf("create run: %w", err)
			}

			var run model.Run
			if err := json.Unmarshal(resp.Data, &run); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Run created: %s (policy %s)\n", run.ID, run.Policy)

			if !flagWatch {
				return nil
			}
			return watchRun(run.ID)
		},
	}

	cmd.Flags().StringVar(&flagPolicy, "policy", "", "Scheduling policy; overrides the scenario default")
	cmd.Flags().IntVar(&flagQuantum, "quantum", 0, "Round-robin time slice in ticks; overrides the scenario default")
	cmd.Flags().IntVar(&flagInterval, "interval", 0, "Tick pacing in milliseconds; overrides the server default")
	cmd.Flags().BoolVar(&flagWatch, "watch", false, "Poll the run until it finishes and print the results")

	return cmd
}

// watchRun polls the run until it reaches a terminal state, printing the clock
// as it advances.
func watchRun(id string) error {
	lastClock := -1
	for {
		resp, err := client.Get("/api/v1/runs/" + id)
		if err != nil {
			return fmt.Errorf("get run: %w", err)
		}
		var run model.Run
		if err := json.Unmarshal(resp.Data, &run); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}

		if run.Clock != lastClock {
			fmt.Printf("t=%-5d state=%s\n", run.Clock, run.State)
			lastClock = run.Clock
		}
		if run.State.IsTerminal() {
			fmt.Printf("\nRun %s: %s\n\n", run.ID, run.State)
			printProcessTable(run.Processes)
			printMetrics(run.Metrics)
			return nil
		}

		time.Sleep(250 * time.Millisecond)
	}
}
