package telemetry

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/corewatch/internal/alerting"
	"github.com/good-yellow-bee/corewatch/internal/models"
	"github.com/good-yellow-bee/corewatch/internal/sensorcfg"
)

// fakeReadingRepo records created readings and can fail per sensor.
type fakeReadingRepo struct {
	mu       sync.Mutex
	readings []*models.Reading
	failFor  map[string]bool
}

func (f *fakeReadingRepo) Create(ctx context.Context, r *models.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[r.SensorID] {
		return fmt.Errorf("simulated storage failure")
	}
	r.ID = uuid.New().String()
	f.readings = append(f.readings, r)
	return nil
}

func (f *fakeReadingRepo) ListBySensor(ctx context.Context, sensorID string, limit int) ([]*models.Reading, error) {
	return nil, nil
}

func (f *fakeReadingRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeReadingRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.readings)
}

// fakeAlertRepo is a minimal in-memory alert store.
type fakeAlertRepo struct {
	mu     sync.Mutex
	alerts []*models.Alert
}

func (f *fakeAlertRepo) Create(ctx context.Context, a *models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = uuid.New().String()
	a.CreatedAt = time.Now()
	copied := *a
	f.alerts = append(f.alerts, &copied)
	return nil
}

func (f *fakeAlertRepo) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.alerts {
		if a.ID == id {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeAlertRepo) ListActive(ctx context.Context) ([]*models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []*models.Alert
	for _, a := range f.alerts {
		if a.Active {
			copied := *a
			active = append(active, &copied)
		}
	}
	return active, nil
}

func (f *fakeAlertRepo) Deactivate(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.alerts {
		if a.ID == id {
			a.Active = false
			return nil
		}
	}
	return fmt.Errorf("alert %s not found", id)
}

// fakePublisher records broadcast events.
type fakePublisher struct {
	mu       sync.Mutex
	readings []models.Reading
	alerts   []models.Alert
}

func (f *fakePublisher) BroadcastReading(r models.Reading) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readings = append(f.readings, r)
}

func (f *fakePublisher) BroadcastAlert(a models.Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, a)
}

// staticModifier applies a fixed delta to one sensor.
type staticModifier struct {
	sensorID string
	delta    float64
	override *models.Status
}

func (m *staticModifier) Adjust(sensorID string) (float64, *models.Status, bool) {
	if sensorID != m.sensorID {
		return 0, nil, false
	}
	return m.delta, m.override, true
}

func testCatalog(configs ...models.SensorConfig) *sensorcfg.Catalog {
	return sensorcfg.NewCatalog(configs)
}

func TestGenerateOnce(t *testing.T) {
	catalog := testCatalog(
		models.SensorConfig{ID: "TEMP-01", Kind: models.KindTemperature, Unit: "°C", BaseValue: 500, Variance: 5},
		models.SensorConfig{ID: "PRES-01", Kind: models.KindPressure, Unit: "MPa", BaseValue: 15, Variance: 0.2},
	)
	latest := NewLatestStore()
	history := &fakeReadingRepo{}
	alerts := alerting.NewManager(&fakeAlertRepo{})
	pub := &fakePublisher{}

	g := NewGenerator(catalog, latest, history, alerts, pub, &GeneratorOptions{
		Rand: rand.New(rand.NewSource(1)),
	})

	now := time.Now()
	g.GenerateOnce(context.Background(), now)

	if history.count() != 2 {
		t.Fatalf("persisted %d readings, want 2", history.count())
	}
	if latest.Len() != 2 {
		t.Fatalf("latest store has %d sensors, want 2", latest.Len())
	}
	if len(pub.readings) != 2 {
		t.Fatalf("broadcast %d readings, want 2", len(pub.readings))
	}

	r, ok := latest.Get("TEMP-01")
	if !ok {
		t.Fatal("TEMP-01 missing from latest store")
	}
	if r.Value < 495 || r.Value > 505 {
		t.Errorf("TEMP-01 value %v outside base±variance band", r.Value)
	}
	if !r.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", r.CreatedAt, now)
	}
}

func TestGenerateOnceFailureIsolation(t *testing.T) {
	catalog := testCatalog(
		models.SensorConfig{ID: "FAILS", Kind: models.KindTemperature, BaseValue: 100, Variance: 1},
		models.SensorConfig{ID: "WORKS", Kind: models.KindTemperature, BaseValue: 100, Variance: 1},
	)
	latest := NewLatestStore()
	history := &fakeReadingRepo{failFor: map[string]bool{"FAILS": true}}
	alerts := alerting.NewManager(&fakeAlertRepo{})

	g := NewGenerator(catalog, latest, history, alerts, nil, &GeneratorOptions{
		Rand: rand.New(rand.NewSource(1)),
	})
	g.GenerateOnce(context.Background(), time.Now())

	if _, ok := latest.Get("FAILS"); ok {
		t.Error("failed sensor should not reach the latest store")
	}
	if _, ok := latest.Get("WORKS"); !ok {
		t.Error("healthy sensor should still be sampled when a sibling fails")
	}
}

func TestGenerateOnceRaisesAlertOnBreach(t *testing.T) {
	// Zero variance pins the value above threshold deterministically.
	threshold := 90.0
	catalog := testCatalog(
		models.SensorConfig{ID: "HOT-01", Kind: models.KindTemperature, Unit: "°C", BaseValue: 100, Variance: 0, Threshold: &threshold},
	)
	latest := NewLatestStore()
	alerts := alerting.NewManager(&fakeAlertRepo{})
	pub := &fakePublisher{}

	g := NewGenerator(catalog, latest, &fakeReadingRepo{}, alerts, pub, &GeneratorOptions{
		Rand: rand.New(rand.NewSource(1)),
	})

	// Two ticks: second breach must be suppressed by dedup.
	g.GenerateOnce(context.Background(), time.Now())
	g.GenerateOnce(context.Background(), time.Now())

	if len(pub.alerts) != 1 {
		t.Fatalf("broadcast %d alerts, want 1 (dedup)", len(pub.alerts))
	}
	if pub.alerts[0].Severity != models.SeverityWarning {
		t.Errorf("severity = %s, want warning", pub.alerts[0].Severity)
	}
	r, _ := latest.Get("HOT-01")
	if r.Status != models.StatusWarning {
		t.Errorf("status = %s, want warning", r.Status)
	}
}

func TestGenerateOnceAppliesModifier(t *testing.T) {
	threshold := 150.0
	maxValue := 200.0
	catalog := testCatalog(
		models.SensorConfig{ID: "MOD-01", Kind: models.KindTemperature, BaseValue: 100, Variance: 0, Threshold: &threshold, MaxValue: &maxValue},
	)
	latest := NewLatestStore()
	alerts := alerting.NewManager(&fakeAlertRepo{})

	g := NewGenerator(catalog, latest, &fakeReadingRepo{}, alerts, nil, &GeneratorOptions{
		Rand: rand.New(rand.NewSource(1)),
	})
	g.SetModifier(&staticModifier{sensorID: "MOD-01", delta: 85})

	g.GenerateOnce(context.Background(), time.Now())

	r, _ := latest.Get("MOD-01")
	if r.Value != 185 {
		t.Errorf("value = %v, want 185 (base + delta)", r.Value)
	}
	if r.Status != models.StatusCritical {
		t.Errorf("status = %s, want critical (185 > 200*0.9)", r.Status)
	}
}

func TestGenerateOnceStatusOverride(t *testing.T) {
	critical := models.StatusCritical
	catalog := testCatalog(
		models.SensorConfig{ID: "OVR-01", Kind: models.KindRadiation, BaseValue: 0.1, Variance: 0},
	)
	latest := NewLatestStore()
	alerts := alerting.NewManager(&fakeAlertRepo{})
	pub := &fakePublisher{}

	g := NewGenerator(catalog, latest, &fakeReadingRepo{}, alerts, pub, &GeneratorOptions{
		Rand: rand.New(rand.NewSource(1)),
	})
	g.SetModifier(&staticModifier{sensorID: "OVR-01", override: &critical})

	g.GenerateOnce(context.Background(), time.Now())

	r, _ := latest.Get("OVR-01")
	if r.Status != models.StatusCritical {
		t.Errorf("status = %s, want critical override despite no threshold", r.Status)
	}
	if len(pub.alerts) != 1 {
		t.Errorf("broadcast %d alerts, want 1 from overridden status", len(pub.alerts))
	}
}

func TestGenerateOnceWarningOverrideWithoutThreshold(t *testing.T) {
	warning := models.StatusWarning
	catalog := testCatalog(
		models.SensorConfig{ID: "ROD-01", Kind: models.KindControlRods, Unit: "%", BaseValue: 62, Variance: 0},
	)
	latest := NewLatestStore()
	alerts := alerting.NewManager(&fakeAlertRepo{})
	pub := &fakePublisher{}

	g := NewGenerator(catalog, latest, &fakeReadingRepo{}, alerts, pub, &GeneratorOptions{
		Rand: rand.New(rand.NewSource(1)),
	})
	g.SetModifier(&staticModifier{sensorID: "ROD-01", override: &warning})

	g.GenerateOnce(context.Background(), time.Now())

	r, _ := latest.Get("ROD-01")
	if r.Status != models.StatusWarning {
		t.Errorf("status = %s, want warning override", r.Status)
	}
	if len(pub.alerts) != 1 {
		t.Fatalf("broadcast %d alerts, want 1", len(pub.alerts))
	}
	if pub.alerts[0].Message == "" {
		t.Error("alert message should describe the sensor despite the missing threshold")
	}
}
