package scenario

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/good-yellow-bee/corewatch/internal/alerting"
	"github.com/good-yellow-bee/corewatch/internal/eventlog"
	"github.com/good-yellow-bee/corewatch/internal/metrics"
	"github.com/good-yellow-bee/corewatch/internal/models"
	"github.com/good-yellow-bee/corewatch/internal/sensorcfg"
	"github.com/good-yellow-bee/corewatch/internal/storage"
	"github.com/good-yellow-bee/corewatch/internal/telemetry"
)

// ErrUnknownScenario is returned when a scenario id does not exist.
var ErrUnknownScenario = errors.New("unknown scenario")

// phaseTimeout bounds the storage work done on one phase entry.
const phaseTimeout = 10 * time.Second

// Publisher delivers scenario-driven events to connected observers.
type Publisher interface {
	BroadcastReading(reading models.Reading)
	BroadcastAlert(alert models.Alert)
	BroadcastRecommendation(rec models.Recommendation)
}

// Orchestrator runs at most one scripted incident at a time, stepping
// through its phases on wall-clock timers. Starting a scenario stops
// any running one first; stop is idempotent. A generation counter
// invalidates timers from superseded runs, so a stale timer can never
// advance the wrong scenario.
type Orchestrator struct {
	defs     []models.ScenarioDefinition
	byID     map[string]*models.ScenarioDefinition
	catalog  *sensorcfg.Catalog
	latest   *telemetry.LatestStore
	readings storage.ReadingRepository
	alerts   *alerting.Manager
	recs     storage.RecommendationRepository
	recorder *eventlog.Recorder
	pub      Publisher

	mu          sync.Mutex
	generation  uint64
	active      *models.ScenarioDefinition
	phaseIndex  int
	startedAt   time.Time
	phaseEndsAt time.Time
	timer       *time.Timer
	mods        map[string]models.SensorModification
}

// NewOrchestrator creates an orchestrator over the given definitions.
func NewOrchestrator(defs []models.ScenarioDefinition, catalog *sensorcfg.Catalog, latest *telemetry.LatestStore, readings storage.ReadingRepository, alerts *alerting.Manager, recs storage.RecommendationRepository, recorder *eventlog.Recorder, pub Publisher) *Orchestrator {
	byID := make(map[string]*models.ScenarioDefinition, len(defs))
	for i := range defs {
		byID[defs[i].ID] = &defs[i]
	}
	return &Orchestrator{
		defs:     defs,
		byID:     byID,
		catalog:  catalog,
		latest:   latest,
		readings: readings,
		alerts:   alerts,
		recs:     recs,
		recorder: recorder,
		pub:      pub,
		mods:     make(map[string]models.SensorModification),
	}
}

// List returns all scenario definitions.
func (o *Orchestrator) List() []models.ScenarioDefinition {
	return o.defs
}

// Get returns one scenario definition by id.
func (o *Orchestrator) Get(id string) (*models.ScenarioDefinition, error) {
	def, ok := o.byID[id]
	if !ok {
		return nil, fmt.Errorf("scenario %s: %w", id, ErrUnknownScenario)
	}
	return def, nil
}

// Start begins the scenario with the given id, stopping any running
// scenario first.
func (o *Orchestrator) Start(ctx context.Context, id string) error {
	def, ok := o.byID[id]
	if !ok {
		return fmt.Errorf("scenario %s: %w", id, ErrUnknownScenario)
	}

	o.mu.Lock()
	if o.active != nil {
		prev := o.active.Name
		o.stopLocked()
		o.recorder.Info(ctx, "scenario", "scenario %q superseded", prev)
	}

	o.generation++
	gen := o.generation
	o.active = def
	o.phaseIndex = 0
	o.startedAt = time.Now()
	o.mu.Unlock()

	metrics.ScenariosStarted.Inc()
	o.recorder.Warning(ctx, "scenario", "scenario %q started: %s", def.Name, def.Description)

	o.enterPhase(gen, 0)
	return nil
}

// Stop halts the running scenario and clears its sensor
// modifications. Stopping when nothing runs is a no-op.
func (o *Orchestrator) Stop(ctx context.Context) {
	o.mu.Lock()
	if o.active == nil {
		o.mu.Unlock()
		return
	}
	name := o.active.Name
	o.stopLocked()
	o.mu.Unlock()

	metrics.ScenariosStopped.Inc()
	o.recorder.Info(ctx, "scenario", "scenario %q stopped, returning to nominal operation", name)
}

// Status returns a point-in-time view of the orchestrator state.
func (o *Orchestrator) Status() models.ScenarioStatus {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active == nil {
		return models.ScenarioStatus{}
	}
	return models.ScenarioStatus{
		Active:      true,
		ScenarioID:  o.active.ID,
		Name:        o.active.Name,
		PhaseIndex:  o.phaseIndex,
		PhaseName:   o.active.Phases[o.phaseIndex].Name,
		StartedAt:   o.startedAt,
		PhaseEndsAt: o.phaseEndsAt,
	}
}

// Adjust reports the active modification for a sensor, if any. The
// sample generator layers the delta onto every reading it produces
// while the scenario runs.
func (o *Orchestrator) Adjust(sensorID string) (float64, *models.Status, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	mod, ok := o.mods[sensorID]
	if !ok {
		return 0, nil, false
	}
	return mod.Delta, mod.StatusOverride, true
}

// stopLocked invalidates pending timers and clears the run state.
// Caller holds the mutex.
func (o *Orchestrator) stopLocked() {
	o.generation++
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.active = nil
	o.phaseIndex = 0
	o.phaseEndsAt = time.Time{}
	o.mods = make(map[string]models.SensorModification)
}

// enterPhase records the phase transition and schedules the advance to
// the next phase, then applies the phase's effects. A generation
// mismatch means this run was stopped or superseded.
func (o *Orchestrator) enterPhase(gen uint64, index int) {
	o.mu.Lock()
	if gen != o.generation || o.active == nil {
		o.mu.Unlock()
		return
	}

	def := o.active
	phase := def.Phases[index]
	o.phaseIndex = index
	o.phaseEndsAt = time.Now().Add(phase.Duration)

	// Later phases override earlier ones per sensor; untouched sensors
	// keep their modifications from prior phases.
	for _, mod := range phase.Modifications {
		o.mods[mod.SensorID] = mod
	}

	o.timer = time.AfterFunc(phase.Duration, func() {
		o.advance(gen, index+1)
	})
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), phaseTimeout)
	defer cancel()

	o.recorder.Warning(ctx, "scenario", "scenario %q entering phase %q", def.Name, phase.Name)
	o.applyPhase(ctx, &phase)
}

// advance moves to the next phase or completes the scenario.
func (o *Orchestrator) advance(gen uint64, next int) {
	o.mu.Lock()
	if gen != o.generation || o.active == nil {
		o.mu.Unlock()
		return
	}
	if next < len(o.active.Phases) {
		o.mu.Unlock()
		o.enterPhase(gen, next)
		return
	}

	name := o.active.Name
	o.stopLocked()
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), phaseTimeout)
	defer cancel()
	o.recorder.Info(ctx, "scenario", "scenario %q completed, returning to nominal operation", name)
}

// applyPhase emits the phase's synthetic readings, alerts, and
// procedure recommendation. Each item is isolated: one failure never
// blocks the rest of the phase.
func (o *Orchestrator) applyPhase(ctx context.Context, phase *models.Phase) {
	for _, mod := range phase.Modifications {
		if err := o.applyModification(ctx, mod); err != nil {
			log.Printf("scenario: apply modification %s: %v", mod.SensorID, err)
		}
	}

	for _, cond := range phase.AlertConditions {
		alert, err := o.alerts.MaybeRaise(ctx, cond.SensorID, cond.Severity, cond.Message)
		if err != nil {
			log.Printf("scenario: raise alert %s: %v", cond.SensorID, err)
			continue
		}
		if alert != nil {
			o.pub.BroadcastAlert(*alert)
		}
	}

	if len(phase.ProcedureSteps) > 0 {
		if err := o.publishProcedure(ctx, phase); err != nil {
			log.Printf("scenario: publish procedure for %q: %v", phase.Name, err)
		}
	}
}

// applyModification synthesizes an immediate reading reflecting the
// modification so observers see the change without waiting for the
// next sampling tick.
func (o *Orchestrator) applyModification(ctx context.Context, mod models.SensorModification) error {
	cfg, ok := o.catalog.Get(mod.SensorID)
	if !ok {
		return fmt.Errorf("sensor %s not in catalog", mod.SensorID)
	}

	value := cfg.BaseValue + mod.Delta
	status := telemetry.EvaluateStatus(value, &cfg)
	if mod.StatusOverride != nil {
		status = *mod.StatusOverride
	}

	reading := models.Reading{
		SensorID:  cfg.ID,
		Kind:      cfg.Kind,
		Value:     value,
		Unit:      cfg.Unit,
		Status:    status,
		Threshold: cfg.Threshold,
		MaxValue:  cfg.MaxValue,
		CreatedAt: time.Now(),
	}
	if err := o.readings.Create(ctx, &reading); err != nil {
		return fmt.Errorf("persist reading: %w", err)
	}

	o.latest.Upsert(reading)
	o.pub.BroadcastReading(reading)
	return nil
}

// publishProcedure turns the phase's procedure steps into a
// high-priority recommendation.
func (o *Orchestrator) publishProcedure(ctx context.Context, phase *models.Phase) error {
	var b strings.Builder
	for i, step := range phase.ProcedureSteps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	rec := &models.Recommendation{
		Title:       fmt.Sprintf("Procedure: %s", phase.Name),
		Description: b.String(),
		Priority:    models.PriorityHigh,
		Confidence:  99,
		Category:    models.CategorySafety,
	}
	if err := o.recs.Create(ctx, rec); err != nil {
		return fmt.Errorf("persist procedure: %w", err)
	}
	o.pub.BroadcastRecommendation(*rec)
	return nil
}
