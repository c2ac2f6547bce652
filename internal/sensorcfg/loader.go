// Package sensorcfg loads and serves the sensor catalog.
package sensorcfg

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

// catalogFile is the YAML shape of a sensors file.
type catalogFile struct {
	Sensors []models.SensorConfig `yaml:"sensors"`
}

// Catalog holds the current immutable set of sensor configurations.
// Replace swaps in a whole new set; individual configs are never
// mutated after load.
type Catalog struct {
	configs atomic.Pointer[[]models.SensorConfig]
}

// NewCatalog creates a catalog with the given initial set.
func NewCatalog(configs []models.SensorConfig) *Catalog {
	c := &Catalog{}
	c.Replace(configs)
	return c
}

// Configs returns the current sensor set. The returned slice must not
// be modified.
func (c *Catalog) Configs() []models.SensorConfig {
	return *c.configs.Load()
}

// Replace atomically swaps in a new sensor set.
func (c *Catalog) Replace(configs []models.SensorConfig) {
	c.configs.Store(&configs)
}

// Get returns the config for a sensor id, if present.
func (c *Catalog) Get(sensorID string) (models.SensorConfig, bool) {
	for _, cfg := range c.Configs() {
		if cfg.ID == sensorID {
			return cfg, true
		}
	}
	return models.SensorConfig{}, false
}

// Sources returns the distinct source labels in the catalog, in first
// appearance order.
func (c *Catalog) Sources() []string {
	seen := make(map[string]struct{})
	var sources []string
	for _, cfg := range c.Configs() {
		if _, ok := seen[cfg.Source]; ok {
			continue
		}
		seen[cfg.Source] = struct{}{}
		sources = append(sources, cfg.Source)
	}
	return sources
}

// LoadFile loads sensor configurations from a YAML file.
func LoadFile(path string) ([]models.SensorConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sensors file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load loads sensor configurations from a reader.
func Load(r io.Reader) ([]models.SensorConfig, error) {
	var file catalogFile
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse sensors YAML: %w", err)
	}

	if len(file.Sensors) == 0 {
		return nil, fmt.Errorf("sensors file defines no sensors")
	}

	seen := make(map[string]struct{}, len(file.Sensors))
	for i := range file.Sensors {
		cfg := &file.Sensors[i]
		if err := validate(cfg); err != nil {
			return nil, fmt.Errorf("invalid sensor at index %d: %w", i, err)
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate sensor id %q", cfg.ID)
		}
		seen[cfg.ID] = struct{}{}
	}

	return file.Sensors, nil
}

func validate(cfg *models.SensorConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("id is required")
	}
	if models.ParseSensorKind(string(cfg.Kind)) == models.KindUnknown {
		return fmt.Errorf("unknown sensor kind %q", cfg.Kind)
	}
	if cfg.Variance < 0 {
		return fmt.Errorf("variance must not be negative")
	}
	if cfg.MaxValue != nil && *cfg.MaxValue <= 0 {
		return fmt.Errorf("max_value must be positive")
	}
	if cfg.Source == "" {
		cfg.Source = "simulator"
	}
	return nil
}
