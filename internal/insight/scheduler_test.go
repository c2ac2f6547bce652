package insight

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/corewatch/internal/alerting"
	"github.com/good-yellow-bee/corewatch/internal/eventlog"
	"github.com/good-yellow-bee/corewatch/internal/models"
	"github.com/good-yellow-bee/corewatch/internal/telemetry"
)

// memRecRepo is an in-memory recommendation repository.
type memRecRepo struct {
	mu   sync.Mutex
	recs []*models.Recommendation
}

func (r *memRecRepo) Create(ctx context.Context, rec *models.Recommendation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now()
	copied := *rec
	r.recs = append(r.recs, &copied)
	return nil
}

func (r *memRecRepo) ListRecent(ctx context.Context, limit int) ([]*models.Recommendation, error) {
	return nil, nil
}

func (r *memRecRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

// memLogRepo discards system log entries.
type memLogRepo struct{}

func (memLogRepo) Create(ctx context.Context, e *models.SystemLogEntry) error { return nil }
func (memLogRepo) ListRecent(ctx context.Context, limit int) ([]*models.SystemLogEntry, error) {
	return nil, nil
}
func (memLogRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

// memAlertRepo serves a fixed active-alert set.
type memAlertRepo struct {
	active []*models.Alert
}

func (r *memAlertRepo) Create(ctx context.Context, a *models.Alert) error   { return nil }
func (r *memAlertRepo) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	return nil, nil
}
func (r *memAlertRepo) ListActive(ctx context.Context) ([]*models.Alert, error) {
	return r.active, nil
}
func (r *memAlertRepo) Deactivate(ctx context.Context, id string) error { return nil }

// recPublisher records broadcast recommendations.
type recPublisher struct {
	mu   sync.Mutex
	recs []models.Recommendation
}

func (p *recPublisher) BroadcastRecommendation(rec models.Recommendation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recs = append(p.recs, rec)
}

// stubAnalyzer returns a fixed result or error.
type stubAnalyzer struct {
	result *Result
	err    error
	calls  int
}

func (a *stubAnalyzer) Analyze(ctx context.Context, snap Snapshot) (*Result, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

func newTestScheduler(analyzer Analyzer, probability float64, seed int64) (*Scheduler, *memRecRepo, *recPublisher) {
	recs := &memRecRepo{}
	pub := &recPublisher{}
	recorder := eventlog.NewRecorder(memLogRepo{}, nil)
	s := NewScheduler(analyzer, telemetry.NewLatestStore(), alerting.NewManager(&memAlertRepo{}), recs, pub, recorder, &SchedulerOptions{
		Interval:        30 * time.Second,
		Probability:     probability,
		Timeout:         time.Second,
		ConfidenceFloor: 70,
		Rand:            rand.New(rand.NewSource(seed)),
	})
	return s, recs, pub
}

func TestRunOnceProbabilityGate(t *testing.T) {
	// Probability zero: every tick is skipped.
	s, recs, _ := newTestScheduler(nil, 0, 1)
	for i := 0; i < 10; i++ {
		rec, err := s.RunOnce(context.Background())
		if err != nil {
			t.Fatalf("RunOnce: %v", err)
		}
		if rec != nil {
			t.Fatal("tick should be skipped with probability 0")
		}
	}
	if len(recs.recs) != 0 {
		t.Errorf("%d recommendations persisted, want 0", len(recs.recs))
	}

	// Probability one: every tick publishes.
	s, recs, pub := newTestScheduler(nil, 1, 1)
	for i := 0; i < 5; i++ {
		rec, err := s.RunOnce(context.Background())
		if err != nil {
			t.Fatalf("RunOnce: %v", err)
		}
		if rec == nil {
			t.Fatal("tick should publish with probability 1")
		}
	}
	if len(recs.recs) != 5 || len(pub.recs) != 5 {
		t.Errorf("persisted %d, broadcast %d, want 5 each", len(recs.recs), len(pub.recs))
	}
}

func TestRunOnceUsesAnalyzerResult(t *testing.T) {
	analyzer := &stubAnalyzer{result: &Result{
		Title:       "Reduce turbine load",
		Description: "Load imbalance detected.",
		Priority:    models.PriorityMedium,
		Confidence:  85,
		Category:    models.CategoryPerformance,
	}}
	s, _, _ := newTestScheduler(analyzer, 1, 1)

	rec, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if rec.Title != "Reduce turbine load" {
		t.Errorf("title = %q, want analyzer title", rec.Title)
	}
	if rec.Confidence != 85 {
		t.Errorf("confidence = %d, want 85", rec.Confidence)
	}
	if analyzer.calls != 1 {
		t.Errorf("analyzer called %d times, want 1", analyzer.calls)
	}
}

func TestRunOnceFallbackOnAnalyzerError(t *testing.T) {
	analyzer := &stubAnalyzer{err: fmt.Errorf("connection refused")}
	s, _, _ := newTestScheduler(analyzer, 1, 1)

	rec, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if rec == nil {
		t.Fatal("analyzer failure should degrade to fallback content, not skip")
	}
	if rec.Title == "" || rec.Description == "" {
		t.Error("fallback recommendation is incomplete")
	}
}

func TestRunOnceFallbackReflectsAlerts(t *testing.T) {
	recs := &memRecRepo{}
	recorder := eventlog.NewRecorder(memLogRepo{}, nil)
	latest := telemetry.NewLatestStore()
	latest.Upsert(models.Reading{
		SensorID:  "CORE-TEMP-01",
		Kind:      models.KindTemperature,
		Value:     610,
		Unit:      "°C",
		Status:    models.StatusCritical,
		CreatedAt: time.Now(),
	})
	alerts := alerting.NewManager(&memAlertRepo{active: []*models.Alert{
		{ID: "a1", SensorID: "CORE-TEMP-01", Severity: models.SeverityCritical, Active: true},
	}})

	s := NewScheduler(nil, latest, alerts, recs, nil, recorder, &SchedulerOptions{
		Probability:     1,
		Timeout:         time.Second,
		ConfidenceFloor: 70,
		Rand:            rand.New(rand.NewSource(1)),
	})

	rec, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if rec.Priority != models.PriorityHigh {
		t.Errorf("priority = %s, want high for a critical reading", rec.Priority)
	}
	if rec.Category != models.CategorySafety {
		t.Errorf("category = %s, want safety", rec.Category)
	}
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-5, 70},
		{0, 70},
		{50, 70},
		{70, 70},
		{85, 85},
		{99, 99},
		{100, 99},
		{250, 99},
	}

	s, _, _ := newTestScheduler(nil, 1, 1)
	for _, tt := range tests {
		if got := s.clampConfidence(tt.in); got != tt.want {
			t.Errorf("clampConfidence(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFallbackConfidenceRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		r := fallbackResult(Snapshot{}, rng)
		if r.Confidence < 70 || r.Confidence > 94 {
			t.Fatalf("steady-state confidence %d outside [70, 94]", r.Confidence)
		}
	}
}
