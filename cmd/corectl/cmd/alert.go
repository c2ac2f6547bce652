package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

// alertCmd is the alert command group.
var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Alert management commands",
	Long: `Commands for viewing and acknowledging alerts.

Examples:
  # List active alerts
  corectl alert list

  # Acknowledge an alert by ID
  corectl alert ack 550e8400-e29b-41d4-a716-446655440000`,
}

// alertListCmd lists active alerts.
var alertListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		var alerts []*models.Alert
		if err := apiRequest(http.MethodGet, "/api/v1/alerts", nil, &alerts); err != nil {
			return fmt.Errorf("list alerts: %w", err)
		}

		if len(alerts) == 0 {
			fmt.Println("No active alerts.")
			return nil
		}

		fmt.Printf("\n%-36s  %-16s  %-10s  %-40s  %s\n",
			"ID", "SENSOR", "SEVERITY", "MESSAGE", "RAISED")
		fmt.Println(strings.Repeat("-", 120))
		for _, a := range alerts {
			fmt.Printf("%-36s  %-16s  %-10s  %-40s  %s\n",
				a.ID,
				truncate(a.SensorID, 16),
				strings.ToUpper(string(a.Severity)),
				truncate(a.Message, 40),
				a.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		fmt.Printf("\nTotal: %d active alert(s)\n", len(alerts))
		return nil
	},
}

// alertAckCmd acknowledges one alert.
var alertAckCmd = &cobra.Command{
	Use:   "ack <alert-id>",
	Short: "Acknowledge an alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := fmt.Sprintf("/api/v1/alerts/%s/ack", url.PathEscape(args[0]))

		var alert models.Alert
		if err := apiRequest(http.MethodPost, path, nil, &alert); err != nil {
			return fmt.Errorf("acknowledge alert: %w", err)
		}

		fmt.Printf("Alert %s acknowledged (%s on %s)\n", alert.ID, alert.Severity, alert.SensorID)
		return nil
	},
}

func init() {
	alertCmd.AddCommand(alertListCmd)
	alertCmd.AddCommand(alertAckCmd)
	rootCmd.AddCommand(alertCmd)
}
