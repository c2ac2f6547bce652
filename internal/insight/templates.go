package insight

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

// buildPrompt renders the snapshot as a compact plant summary with
// instructions to answer in the analyzerPayload JSON shape.
func buildPrompt(snap Snapshot) string {
	var b strings.Builder
	b.WriteString("You are a nuclear plant operations advisor. Current instrument readings:\n")
	for _, r := range snap.Readings {
		fmt.Fprintf(&b, "- %s (%s): %.2f %s, status %s", r.SensorID, r.Kind, r.Value, r.Unit, r.Status)
		if r.Threshold != nil {
			fmt.Fprintf(&b, ", threshold %.2f", *r.Threshold)
		}
		b.WriteString("\n")
	}
	if len(snap.Alerts) > 0 {
		b.WriteString("Active alerts:\n")
		for _, a := range snap.Alerts {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", a.Severity, a.SensorID, a.Message)
		}
	} else {
		b.WriteString("No active alerts.\n")
	}
	b.WriteString("Reply with a single JSON object with keys title, description, " +
		"priority (high|medium|low|info), confidence (0-100), and " +
		"category (anomaly|optimization|performance|maintenance|safety). " +
		"Give one specific, actionable recommendation for the operators.\n")
	return b.String()
}

// fallbackTemplate is one locally generated recommendation used when
// the analyzer is unavailable.
type fallbackTemplate struct {
	title       string
	description string
	priority    models.Priority
	category    models.Category
}

// steadyStateTemplates rotate while the plant is nominal.
var steadyStateTemplates = []fallbackTemplate{
	{
		title:       "Coolant pump efficiency review",
		description: "All primary loop readings are within operating bands. Schedule a routine efficiency review of the coolant circulation pumps during the next maintenance window.",
		priority:    models.PriorityLow,
		category:    models.CategoryMaintenance,
	},
	{
		title:       "Control rod calibration check",
		description: "Neutron flux has been stable over the recent sampling window. Consider verifying control rod position calibration against the flux baseline.",
		priority:    models.PriorityInfo,
		category:    models.CategoryOptimization,
	},
	{
		title:       "Turbine load balancing opportunity",
		description: "Steam pressure and temperature trends indicate headroom for minor turbine load rebalancing to improve thermal efficiency.",
		priority:    models.PriorityLow,
		category:    models.CategoryPerformance,
	},
	{
		title:       "Sensor drift audit",
		description: "Telemetry variance is nominal across all instruments. A periodic drift audit of radiation monitors keeps confidence in the baseline high.",
		priority:    models.PriorityInfo,
		category:    models.CategoryMaintenance,
	},
}

// fallbackResult derives a recommendation from the snapshot alone.
// Breached sensors produce targeted content; otherwise a steady-state
// template is chosen with the provided randomness source.
func fallbackResult(snap Snapshot, rng *rand.Rand) *Result {
	if r := worstReading(snap.Readings); r != nil {
		if r.Status == models.StatusCritical {
			return &Result{
				Title:       fmt.Sprintf("Immediate attention: %s critical", r.SensorID),
				Description: fmt.Sprintf("%s is reading %.2f %s, in the critical band near its maximum rating. Verify instrument health and prepare the corresponding abnormal operating procedure.", r.SensorID, r.Value, r.Unit),
				Priority:    models.PriorityHigh,
				Confidence:  90,
				Category:    models.CategorySafety,
			}
		}
		return &Result{
			Title:       fmt.Sprintf("Investigate elevated %s", r.SensorID),
			Description: fmt.Sprintf("%s is reading %.2f %s, above its configured threshold. Review recent trend data and cross-check adjacent instruments for correlated movement.", r.SensorID, r.Value, r.Unit),
			Priority:    models.PriorityMedium,
			Confidence:  80,
			Category:    models.CategoryAnomaly,
		}
	}

	tpl := steadyStateTemplates[rng.Intn(len(steadyStateTemplates))]
	return &Result{
		Title:       tpl.title,
		Description: tpl.description,
		Priority:    tpl.priority,
		Confidence:  70 + rng.Intn(25),
		Category:    tpl.category,
	}
}

// worstReading returns the most severe breached reading, or nil when
// everything is normal.
func worstReading(readings []models.Reading) *models.Reading {
	var worst *models.Reading
	for i := range readings {
		switch readings[i].Status {
		case models.StatusCritical:
			return &readings[i]
		case models.StatusWarning:
			if worst == nil {
				worst = &readings[i]
			}
		}
	}
	return worst
}
