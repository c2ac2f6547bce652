package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

var (
	readingsKind string
	historyLimit int
)

// readingsCmd shows the latest reading per sensor.
var readingsCmd = &cobra.Command{
	Use:   "readings",
	Short: "Show the latest reading per sensor",
	Long: `Show the latest reading for every monitored sensor.

Examples:
  # All sensors
  corectl readings

  # Only temperature sensors
  corectl readings --kind temperature

  # Recent history for one sensor
  corectl readings history CORE-TEMP-01 --limit 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/api/v1/readings"
		if readingsKind != "" {
			path += "?kind=" + url.QueryEscape(readingsKind)
		}

		var readings []models.Reading
		if err := apiRequest(http.MethodGet, path, nil, &readings); err != nil {
			return fmt.Errorf("list readings: %w", err)
		}

		if len(readings) == 0 {
			fmt.Println("No readings yet.")
			return nil
		}

		printReadings(readings)
		return nil
	},
}

// readingsHistoryCmd shows recent readings for one sensor.
var readingsHistoryCmd = &cobra.Command{
	Use:   "history <sensor-id>",
	Short: "Show recent readings for one sensor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := fmt.Sprintf("/api/v1/readings/%s/history?limit=%d", url.PathEscape(args[0]), historyLimit)

		var readings []models.Reading
		if err := apiRequest(http.MethodGet, path, nil, &readings); err != nil {
			return fmt.Errorf("reading history: %w", err)
		}

		if len(readings) == 0 {
			fmt.Printf("No readings recorded for %s.\n", args[0])
			return nil
		}

		printReadings(readings)
		return nil
	},
}

func printReadings(readings []models.Reading) {
	fmt.Printf("\n%-16s  %-14s  %12s  %-8s  %-10s  %s\n",
		"SENSOR", "KIND", "VALUE", "UNIT", "STATUS", "AT")
	fmt.Println(strings.Repeat("-", 80))
	for _, r := range readings {
		fmt.Printf("%-16s  %-14s  %12.2f  %-8s  %-10s  %s\n",
			truncate(r.SensorID, 16),
			r.Kind,
			r.Value,
			r.Unit,
			statusMarker(r.Status),
			r.CreatedAt.Format("15:04:05"),
		)
	}
	fmt.Printf("\nTotal: %d reading(s)\n", len(readings))
}

func statusMarker(st models.Status) string {
	switch st {
	case models.StatusCritical:
		return "CRITICAL"
	case models.StatusWarning:
		return "WARNING"
	default:
		return "normal"
	}
}

func init() {
	readingsCmd.Flags().StringVarP(&readingsKind, "kind", "k", "", "filter by sensor kind (temperature, pressure, radiation, coolant_flow, neutron_flux, control_rods)")
	readingsHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of readings to show")

	readingsCmd.AddCommand(readingsHistoryCmd)
	rootCmd.AddCommand(readingsCmd)
}
