package telemetry

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/good-yellow-bee/corewatch/internal/alerting"
	"github.com/good-yellow-bee/corewatch/internal/metrics"
	"github.com/good-yellow-bee/corewatch/internal/models"
	"github.com/good-yellow-bee/corewatch/internal/sensorcfg"
	"github.com/good-yellow-bee/corewatch/internal/storage"
)

// Publisher delivers telemetry events to connected observers.
type Publisher interface {
	BroadcastReading(reading models.Reading)
	BroadcastAlert(alert models.Alert)
}

// Modifier layers an external adjustment onto generated samples.
// A running incident scenario shifts sensor values through this.
type Modifier interface {
	// Adjust returns the value delta and optional status override for
	// a sensor. ok is false when the sensor is unmodified.
	Adjust(sensorID string) (delta float64, override *models.Status, ok bool)
}

// GeneratorOptions configures the sample generator.
type GeneratorOptions struct {
	// Interval is the sampling period.
	Interval time.Duration
	// Rand is the randomness source for perturbations. A nil value
	// gets a time-seeded source.
	Rand *rand.Rand
}

// DefaultGeneratorOptions returns default generator options.
func DefaultGeneratorOptions() *GeneratorOptions {
	return &GeneratorOptions{
		Interval: 2 * time.Second,
	}
}

// Generator synthesizes one reading per configured sensor on a fixed
// period, derives status, updates the latest-value store, persists
// history, and raises alerts on threshold breaches. A failure on one
// sensor never blocks the others.
type Generator struct {
	catalog  *sensorcfg.Catalog
	latest   *LatestStore
	history  storage.ReadingRepository
	alerts   *alerting.Manager
	pub      Publisher
	mod      Modifier
	interval time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a sample generator.
func NewGenerator(catalog *sensorcfg.Catalog, latest *LatestStore, history storage.ReadingRepository, alerts *alerting.Manager, pub Publisher, opts *GeneratorOptions) *Generator {
	if opts == nil {
		opts = DefaultGeneratorOptions()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	return &Generator{
		catalog:  catalog,
		latest:   latest,
		history:  history,
		alerts:   alerts,
		pub:      pub,
		interval: interval,
		rng:      rng,
	}
}

// Run generates samples on the configured interval until ctx is
// cancelled.
func (g *Generator) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.GenerateOnce(ctx, time.Now())
		}
	}
}

// GenerateOnce produces one reading per configured sensor at the given
// time. Exported for deterministic tests.
func (g *Generator) GenerateOnce(ctx context.Context, now time.Time) {
	for _, cfg := range g.catalog.Configs() {
		if err := g.sample(ctx, cfg, now); err != nil {
			metrics.SampleFailures.Inc()
			log.Printf("telemetry: sample %s: %v", cfg.ID, err)
		}
	}
}

// SetModifier attaches a sample modifier. Call before Run.
func (g *Generator) SetModifier(mod Modifier) {
	g.mod = mod
}

// sample generates, persists, and publishes one sensor's reading.
func (g *Generator) sample(ctx context.Context, cfg models.SensorConfig, now time.Time) error {
	value := cfg.BaseValue + g.perturbation()*cfg.Variance

	var override *models.Status
	if g.mod != nil {
		if delta, ov, ok := g.mod.Adjust(cfg.ID); ok {
			value += delta
			override = ov
		}
	}

	status := EvaluateStatus(value, &cfg)
	if override != nil {
		status = *override
	}

	reading := models.Reading{
		SensorID:  cfg.ID,
		Kind:      cfg.Kind,
		Value:     value,
		Unit:      cfg.Unit,
		Status:    status,
		Threshold: cfg.Threshold,
		MaxValue:  cfg.MaxValue,
		CreatedAt: now,
	}

	if err := g.history.Create(ctx, &reading); err != nil {
		return fmt.Errorf("persist reading: %w", err)
	}

	g.latest.Upsert(reading)
	metrics.SamplesGenerated.Inc()
	metrics.ReadingStatus.WithLabelValues(cfg.ID).Set(statusGaugeValue(status))

	if g.pub != nil {
		g.pub.BroadcastReading(reading)
	}

	severity, breached := models.SeverityForStatus(status)
	if !breached {
		return nil
	}

	alert, err := g.alerts.MaybeRaise(ctx, cfg.ID, severity, breachMessage(&cfg, value, severity))
	if err != nil {
		return fmt.Errorf("raise alert: %w", err)
	}
	if alert != nil && g.pub != nil {
		g.pub.BroadcastAlert(*alert)
	}
	return nil
}

// perturbation draws a symmetric random value in [-1, 1).
func (g *Generator) perturbation() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()*2 - 1
}

func breachMessage(cfg *models.SensorConfig, value float64, severity models.Severity) string {
	if severity == models.SeverityCritical {
		return fmt.Sprintf("%s at %.2f %s approaching maximum rating", cfg.ID, value, cfg.Unit)
	}
	// A scenario override can mark a thresholdless sensor as warning.
	if cfg.Threshold == nil {
		return fmt.Sprintf("%s at %.2f %s outside expected range", cfg.ID, value, cfg.Unit)
	}
	return fmt.Sprintf("%s at %.2f %s exceeded threshold %.2f %s", cfg.ID, value, cfg.Unit, *cfg.Threshold, cfg.Unit)
}

func statusGaugeValue(status models.Status) float64 {
	switch status {
	case models.StatusCritical:
		return 2
	case models.StatusWarning:
		return 1
	default:
		return 0
	}
}
