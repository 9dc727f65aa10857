package cli

import (
	"encoding/json"
	"fmt"

	"github.com/me/schedsim/pkg/model"
	"github.com/spf13/cobra"
)

func newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <run_id>",
		Short: "Cancel a live run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			resp, err := client.Put("/api/v1/runs/"+id+"/cancel", nil)
			if err != nil {
				return fmt.Errorf("cancel run: %w", err)
			}

			var run model.Run
			if err := json.Unmarshal(resp.Data, &run); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Run %s: %s (clock %d)\n", run.ID, run.State, run.Clock)
			if run.Metrics != nil {
				fmt.Printf("  Completed: %d/%d\n", run.Metrics.Completed, run.Metrics.Total)
			}
			return nil
		},
	}
}
