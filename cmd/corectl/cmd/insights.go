package cmd

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

var insightsLimit int

// insightsCmd lists recent operator recommendations.
var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "List recent operator recommendations",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := fmt.Sprintf("/api/v1/insights?limit=%d", insightsLimit)

		var recs []*models.Recommendation
		if err := apiRequest(http.MethodGet, path, nil, &recs); err != nil {
			return fmt.Errorf("list insights: %w", err)
		}

		if len(recs) == 0 {
			fmt.Println("No recommendations yet.")
			return nil
		}

		for _, r := range recs {
			fmt.Printf("[%s] %s (%s, %d%% confidence, %s)\n",
				strings.ToUpper(string(r.Priority)),
				r.Title,
				r.Category,
				r.Confidence,
				r.CreatedAt.Format("2006-01-02 15:04:05"),
			)
			fmt.Printf("    %s\n", r.Description)
		}
		return nil
	},
}

func init() {
	insightsCmd.Flags().IntVarP(&insightsLimit, "limit", "n", 10, "number of recommendations to show")
	rootCmd.AddCommand(insightsCmd)
}
