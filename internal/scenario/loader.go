// Package scenario runs scripted incident drills against the live
// telemetry state.
package scenario

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

// scenarioFile is the YAML shape of a scenarios file.
type scenarioFile struct {
	Scenarios []models.ScenarioDefinition `yaml:"scenarios"`
}

// LoadFile loads scenario definitions from a YAML file.
func LoadFile(path string) ([]models.ScenarioDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenarios file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load loads scenario definitions from a reader. Phase durations are
// parsed from their Go duration strings.
func Load(r io.Reader) ([]models.ScenarioDefinition, error) {
	var file scenarioFile
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse scenarios YAML: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Scenarios))
	for i := range file.Scenarios {
		def := &file.Scenarios[i]
		if err := validate(def); err != nil {
			return nil, fmt.Errorf("invalid scenario at index %d: %w", i, err)
		}
		if _, dup := seen[def.ID]; dup {
			return nil, fmt.Errorf("duplicate scenario id %q", def.ID)
		}
		seen[def.ID] = struct{}{}
	}

	return file.Scenarios, nil
}

func validate(def *models.ScenarioDefinition) error {
	if def.ID == "" {
		return fmt.Errorf("id is required")
	}
	if def.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(def.Phases) == 0 {
		return fmt.Errorf("scenario %q defines no phases", def.ID)
	}

	for i := range def.Phases {
		phase := &def.Phases[i]
		if phase.Name == "" {
			return fmt.Errorf("scenario %q phase %d: name is required", def.ID, i)
		}
		d, err := time.ParseDuration(phase.RawDuration)
		if err != nil {
			return fmt.Errorf("scenario %q phase %q: bad duration %q: %w", def.ID, phase.Name, phase.RawDuration, err)
		}
		if d <= 0 {
			return fmt.Errorf("scenario %q phase %q: duration must be positive", def.ID, phase.Name)
		}
		phase.Duration = d

		for j, mod := range phase.Modifications {
			if mod.SensorID == "" {
				return fmt.Errorf("scenario %q phase %q modification %d: sensor_id is required", def.ID, phase.Name, j)
			}
		}
		for j, cond := range phase.AlertConditions {
			if cond.SensorID == "" {
				return fmt.Errorf("scenario %q phase %q alert %d: sensor_id is required", def.ID, phase.Name, j)
			}
			if cond.Severity != models.SeverityWarning && cond.Severity != models.SeverityCritical {
				return fmt.Errorf("scenario %q phase %q alert %d: unknown severity %q", def.ID, phase.Name, j, cond.Severity)
			}
		}
	}
	return nil
}
