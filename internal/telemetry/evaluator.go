// Package telemetry generates sensor readings and maintains the
// latest-value working set.
package telemetry

import (
	"math"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

// criticalFraction is the portion of a sensor's maximum value above
// which a threshold breach escalates to critical.
const criticalFraction = 0.9

// EvaluateStatus derives the status of a value against a sensor's
// thresholds. A sensor without a threshold never leaves normal. NaN is
// treated as normal explicitly rather than relying on IEEE comparison
// behavior.
//
// Note the formula is sensitive to the ordering of threshold and
// maxValue*0.9: when maxValue*0.9 < threshold, every breach is
// critical and warning is unreachable for that sensor. Both orderings
// are valid configurations.
func EvaluateStatus(value float64, cfg *models.SensorConfig) models.Status {
	if math.IsNaN(value) {
		return models.StatusNormal
	}
	if cfg.Threshold == nil {
		return models.StatusNormal
	}
	if value <= *cfg.Threshold {
		return models.StatusNormal
	}
	if cfg.MaxValue != nil && value > *cfg.MaxValue*criticalFraction {
		return models.StatusCritical
	}
	return models.StatusWarning
}
