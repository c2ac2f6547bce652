package sensorcfg

import (
	"strings"
	"testing"

	"github.com/good-yellow-bee/corewatch/internal/models"
)

func TestLoadValid(t *testing.T) {
	input := `
sensors:
  - id: CORE-TEMP-01
    kind: temperature
    unit: "°C"
    base_value: 580
    variance: 8
    threshold: 590
    max_value: 620
    source: reactor-core
  - id: ROD-POS-01
    kind: control_rods
    unit: "%"
    base_value: 62
    variance: 1.5
`
	sensors, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sensors) != 2 {
		t.Fatalf("loaded %d sensors, want 2", len(sensors))
	}

	s := sensors[0]
	if s.ID != "CORE-TEMP-01" || s.Kind != models.KindTemperature {
		t.Errorf("sensor 0 = %+v", s)
	}
	if s.Threshold == nil || *s.Threshold != 590 {
		t.Errorf("threshold = %v, want 590", s.Threshold)
	}
	if s.MaxValue == nil || *s.MaxValue != 620 {
		t.Errorf("max_value = %v, want 620", s.MaxValue)
	}

	// Optional fields stay nil; source defaults.
	r := sensors[1]
	if r.Threshold != nil || r.MaxValue != nil {
		t.Errorf("optional limits should be nil, got %v %v", r.Threshold, r.MaxValue)
	}
	if r.Source != "simulator" {
		t.Errorf("source = %q, want default simulator", r.Source)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty file", input: "sensors: []"},
		{
			name: "missing id",
			input: `
sensors:
  - kind: temperature
    base_value: 1
`,
		},
		{
			name: "unknown kind",
			input: `
sensors:
  - id: X-01
    kind: seismograph
    base_value: 1
`,
		},
		{
			name: "negative variance",
			input: `
sensors:
  - id: X-01
    kind: pressure
    base_value: 1
    variance: -2
`,
		},
		{
			name: "non-positive max value",
			input: `
sensors:
  - id: X-01
    kind: pressure
    base_value: 1
    max_value: 0
`,
		},
		{
			name: "duplicate id",
			input: `
sensors:
  - id: X-01
    kind: pressure
    base_value: 1
  - id: X-01
    kind: pressure
    base_value: 2
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tt.input)); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestCatalogReplaceAndSources(t *testing.T) {
	catalog := NewCatalog([]models.SensorConfig{
		{ID: "A", Kind: models.KindTemperature, Source: "core"},
		{ID: "B", Kind: models.KindPressure, Source: "loop"},
		{ID: "C", Kind: models.KindRadiation, Source: "core"},
	})

	if got := catalog.Sources(); len(got) != 2 || got[0] != "core" || got[1] != "loop" {
		t.Errorf("Sources = %v, want [core loop]", got)
	}

	if _, ok := catalog.Get("B"); !ok {
		t.Error("Get(B) should find the sensor")
	}

	catalog.Replace([]models.SensorConfig{
		{ID: "D", Kind: models.KindNeutronFlux, Source: "flux"},
	})

	if _, ok := catalog.Get("A"); ok {
		t.Error("replaced catalog should not contain old sensors")
	}
	if _, ok := catalog.Get("D"); !ok {
		t.Error("replaced catalog should contain new sensor")
	}
	if got := catalog.Sources(); len(got) != 1 || got[0] != "flux" {
		t.Errorf("Sources after replace = %v, want [flux]", got)
	}
}
