package cli

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/me/schedsim/pkg/model"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <run_id>",
		Short: "Show the current state of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			resp, err := client.Get("/api/v1/runs/" + id)
			if err != nil {
				return fmt.Errorf("get run: %w", err)
			}

			var run model.Run
			if err := json.Unmarshal(resp.Data, &run); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Run: %s\n", run.ID)
			fmt.Printf("  Scenario: %s (%s)\n", run.ScenarioName, run.ScenarioID)
			if run.Policy == model.PolicyRoundRobin {
				fmt.Printf("  Policy:   %s (quantum %d)\n", run.Policy, run.Quantum)
			} else {
				fmt.Printf("  Policy:   %s\n", run.Policy)
			}
			fmt.Printf("  State:    %s\n", run.State)
			fmt.Printf("  Clock:    %d\n", run.Clock)
			fmt.Printf("  Created:  %s\n", humanize.Time(run.CreatedAt))
			if run.CompletedAt != nil {
				fmt.Printf("  Finished: %s\n", humanize.Time(*run.CompletedAt))
			}

			if len(run.Processes) > 0 {
				fmt.Println()
				printProcessTable(run.Processes)
			}
			printMetrics(run.Metrics)
			return nil
		},
	}
}
