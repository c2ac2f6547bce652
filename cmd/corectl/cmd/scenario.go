package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

// scenarioCmd is the scenario command group.
var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Incident scenario commands",
	Long: `Commands for running scripted incident scenarios.

Scenarios drive sensor values through scripted phases so operators can
rehearse incident response against realistic telemetry.

Examples:
  # List available scenarios
  corectl scenario list

  # Start a drill
  corectl scenario start coolant-leak

  # Check what is running
  corectl scenario status

  # Stop the active scenario
  corectl scenario stop`,
}

// scenarioListCmd lists the loaded scenario definitions.
var scenarioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		var defs []models.ScenarioDefinition
		if err := apiRequest(http.MethodGet, "/api/v1/scenarios", nil, &defs); err != nil {
			return fmt.Errorf("list scenarios: %w", err)
		}

		if len(defs) == 0 {
			fmt.Println("No scenarios loaded.")
			return nil
		}

		fmt.Printf("\n%-20s  %-28s  %-8s  %s\n",
			"ID", "NAME", "PHASES", "DESCRIPTION")
		fmt.Println(strings.Repeat("-", 100))
		for _, d := range defs {
			fmt.Printf("%-20s  %-28s  %-8d  %s\n",
				truncate(d.ID, 20),
				truncate(d.Name, 28),
				len(d.Phases),
				truncate(d.Description, 40),
			)
		}
		fmt.Printf("\nTotal: %d scenario(s)\n", len(defs))
		return nil
	},
}

// scenarioStartCmd starts a scenario by ID.
var scenarioStartCmd = &cobra.Command{
	Use:   "start <scenario-id>",
	Short: "Start a scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := fmt.Sprintf("/api/v1/scenarios/%s/start", url.PathEscape(args[0]))

		var status models.ScenarioStatus
		if err := apiRequest(http.MethodPost, path, nil, &status); err != nil {
			return fmt.Errorf("start scenario: %w", err)
		}

		fmt.Printf("Scenario %q started, phase %q until %s\n",
			status.Name, status.PhaseName, status.PhaseEndsAt.Format("15:04:05"))
		return nil
	},
}

// scenarioStopCmd stops the active scenario.
var scenarioStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		var status models.ScenarioStatus
		if err := apiRequest(http.MethodPost, "/api/v1/scenarios/stop", nil, &status); err != nil {
			return fmt.Errorf("stop scenario: %w", err)
		}

		fmt.Println("Scenario stopped.")
		return nil
	},
}

// scenarioStatusCmd shows the active scenario, if any.
var scenarioStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active scenario",
	RunE: func(cmd *cobra.Command, args []string) error {
		var status models.ScenarioStatus
		if err := apiRequest(http.MethodGet, "/api/v1/scenarios/active", nil, &status); err != nil {
			return fmt.Errorf("scenario status: %w", err)
		}

		if !status.Active {
			fmt.Println("No scenario running.")
			return nil
		}

		fmt.Printf("Scenario:  %s (%s)\n", status.Name, status.ScenarioID)
		fmt.Printf("Phase:     %d (%s)\n", status.PhaseIndex+1, status.PhaseName)
		fmt.Printf("Started:   %s\n", status.StartedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Phase ends: %s\n", status.PhaseEndsAt.Format("15:04:05"))
		return nil
	},
}

func init() {
	scenarioCmd.AddCommand(scenarioListCmd)
	scenarioCmd.AddCommand(scenarioStartCmd)
	scenarioCmd.AddCommand(scenarioStopCmd)
	scenarioCmd.AddCommand(scenarioStatusCmd)
	rootCmd.AddCommand(scenarioCmd)
}
