package cli

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/me/schedsim/pkg/model"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var flagState string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/runs/"
			if flagState != "" {
				path += "?state=" + flagState
			}
			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			var runs []model.Run
			if err := json.Unmarshal(resp.Data, &runs); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(runs) == 0 {
				fmt.Println("No runs found.")
				return nil
			}

			fmt.Printf("%-40s  %-10s  %-12s  %-20s  %6s  %s\n", "ID", "STATE", "POLICY", "SCENARIO", "CLOCK", "CREATED")
			fmt.Printf("%-40s  %-10s  %-12s  %-20s  %6s  %s\n", "----", "-----", "------", "--------", "-----", "-------")
			for _, run := range runs {
				fmt.Printf("%-40s  %-10s  %-12s  %-20s  %6d  %s\n",
					run.ID, run.State, run.Policy, run.ScenarioName, run.Clock, humanize.Time(run.CreatedAt))
			}

			if resp.Pagination != nil && resp.Pagination.HasMore {
				fmt.Printf("\n(%d of %d shown)\n", len(runs), resp.Pagination.Total)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&flagState, "state", "", "Filter by run state (PENDING, RUNNING, PAUSED, COMPLETED, CANCELLED)")

	return cmd
}
