package cmd

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

var logsLimit int

// logsCmd lists recent system log entries.
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "List recent system log entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := fmt.Sprintf("/api/v1/logs?limit=%d", logsLimit)

		var entries []*models.SystemLogEntry
		if err := apiRequest(http.MethodGet, path, nil, &entries); err != nil {
			return fmt.Errorf("list logs: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No log entries yet.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  %-7s  %-10s  %s\n",
				e.CreatedAt.Format("2006-01-02 15:04:05"),
				strings.ToUpper(string(e.Level)),
				e.Source,
				e.Message,
			)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "n", 50, "number of entries to show")
	rootCmd.AddCommand(logsCmd)
}
