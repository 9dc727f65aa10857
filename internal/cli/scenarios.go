package cli

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/me/schedsim/internal/scenario"
	"github.com/me/schedsim/pkg/model"
	"github.com/spf13/cobra"
)

func newScenariosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Manage scenarios on the server",
	}
	cmd.AddCommand(
		newScenariosListCmd(),
		newScenariosRegisterCmd(),
	)
	return cmd
}

func newScenariosListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/scenarios/")
			if err != nil {
				return fmt.Errorf("list scenarios: %w", err)
			}

			var scenarios []model.Scenario
			if err := json.Unmarshal(resp.Data, &scenarios); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(scenarios) == 0 {
				fmt.Println("No scenarios found.")
				return nil
			}

			fmt.Printf("%-40s  %-20s  %9s  %-12s  %s\n", "ID", "NAME", "PROCESSES", "POLICY", "CREATED")
			fmt.Printf("%-40s  %-20s  %9s  %-12s  %s\n", "----", "-----", "---------", "------", "-------")
			for _, scn := range scenarios {
				fmt.Printf("%-40s  %-20s  %9d  %-12s  %s\n",
					scn.ID, scn.Name, len(scn.Processes), scn.DefaultPolicy, humanize.Time(scn.CreatedAt))
			}

			if resp.Pagination != nil && resp.Pagination.HasMore {
				fmt.Printf("\n(%d of %d shown)\n", len(scenarios), resp.Pagination.Total)
			}

			return nil
		},
	}
}

func newScenariosRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <scenario.yaml>",
		Short: "Register a scenario file with the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := scenario.Load(args[0])
			if err != nil {
				return err
			}

			resp, err := client.Post("/api/v1/scenarios/", map[string]any{
				"name":           sf.Name,
				"description":    sf.Description,
				"processes":      sf.Specs(),
				"default_policy": string(sf.DefaultPolicy()),
				"quantum":        sf.Quantum,
			})
			if err != nil {
				return fmt.Errorf("register scenario: %w", err)
			}

			var scn model.Scenario
			if err := json.Unmarshal(resp.Data, &scn); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Scenario registered: %s (%s, %d processes)\n", scn.ID, scn.Name, len(scn.Processes))
			return nil
		},
	}
}
