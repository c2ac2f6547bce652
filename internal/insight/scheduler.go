package insight

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/good-yellow-bee/corewatch/internal/alerting"
	"github.com/good-yellow-bee/corewatch/internal/eventlog"
	"github.com/good-yellow-bee/corewatch/internal/metrics"
	"github.com/good-yellow-bee/corewatch/internal/models"
	"github.com/good-yellow-bee/corewatch/internal/storage"
	"github.com/good-yellow-bee/corewatch/internal/telemetry"
)

// Publisher delivers a recommendation to connected observers.
type Publisher interface {
	BroadcastRecommendation(rec models.Recommendation)
}

// SchedulerOptions configures the insight scheduler.
type SchedulerOptions struct {
	// Interval is the tick period.
	Interval time.Duration
	// Probability is the chance a tick produces a recommendation.
	Probability float64
	// Timeout bounds one analyzer call.
	Timeout time.Duration
	// ConfidenceFloor is the minimum published confidence.
	ConfidenceFloor int
	// Rand is the randomness source for the probability gate and
	// fallback selection. A nil value gets a time-seeded source.
	Rand *rand.Rand
}

// DefaultSchedulerOptions returns default scheduler options.
func DefaultSchedulerOptions() *SchedulerOptions {
	return &SchedulerOptions{
		Interval:        30 * time.Second,
		Probability:     0.4,
		Timeout:         10 * time.Second,
		ConfidenceFloor: 70,
	}
}

// Scheduler periodically asks the analyzer for a recommendation,
// persists it, and fans it out. Analyzer failures degrade to locally
// generated content; the scheduler itself never fails a tick.
type Scheduler struct {
	analyzer Analyzer
	latest   *telemetry.LatestStore
	alerts   *alerting.Manager
	recs     storage.RecommendationRepository
	pub      Publisher
	recorder *eventlog.Recorder
	opts     *SchedulerOptions

	mu  sync.Mutex
	rng *rand.Rand
}

// NewScheduler creates an insight scheduler. analyzer may be nil, in
// which case every tick uses fallback content.
func NewScheduler(analyzer Analyzer, latest *telemetry.LatestStore, alerts *alerting.Manager, recs storage.RecommendationRepository, pub Publisher, recorder *eventlog.Recorder, opts *SchedulerOptions) *Scheduler {
	if opts == nil {
		opts = DefaultSchedulerOptions()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Scheduler{
		analyzer: analyzer,
		latest:   latest,
		alerts:   alerts,
		recs:     recs,
		pub:      pub,
		recorder: recorder,
		opts:     opts,
		rng:      rng,
	}
}

// Run ticks on the configured interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.recorder.Error(ctx, "analysis", "insight tick failed: %v", err)
			}
		}
	}
}

// RunOnce executes one scheduler tick. Returns (nil, nil) when the
// probability gate skips the tick. Exported for deterministic tests.
func (s *Scheduler) RunOnce(ctx context.Context) (*models.Recommendation, error) {
	if s.roll() > s.opts.Probability {
		return nil, nil
	}

	snap := Snapshot{Readings: s.latest.GetAll()}
	alerts, err := s.alerts.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot alerts: %w", err)
	}
	snap.Alerts = alerts

	result := s.analyze(ctx, snap)

	rec := &models.Recommendation{
		Title:       result.Title,
		Description: result.Description,
		Priority:    result.Priority,
		Confidence:  s.clampConfidence(result.Confidence),
		Category:    result.Category,
	}
	if err := s.recs.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist recommendation: %w", err)
	}

	metrics.InsightRuns.Inc()
	if s.pub != nil {
		s.pub.BroadcastRecommendation(*rec)
	}
	s.recorder.Info(ctx, "analysis", "recommendation published: %s", rec.Title)

	return rec, nil
}

// analyze calls the analyzer with the configured deadline, degrading
// to fallback content on any failure.
func (s *Scheduler) analyze(ctx context.Context, snap Snapshot) *Result {
	if s.analyzer == nil {
		return s.fallback(snap)
	}

	actx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	result, err := s.analyzer.Analyze(actx, snap)
	if err != nil {
		metrics.InsightFallbacks.Inc()
		s.recorder.Warning(ctx, "analysis", "analyzer unavailable, using fallback: %v", err)
		return s.fallback(snap)
	}
	return result
}

func (s *Scheduler) fallback(snap Snapshot) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fallbackResult(snap, s.rng)
}

func (s *Scheduler) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// clampConfidence bounds confidence to [floor, 99]. A published
// recommendation is never fully certain and never below the floor.
func (s *Scheduler) clampConfidence(c int) int {
	c = models.ClampConfidence(c)
	if c < s.opts.ConfidenceFloor {
		c = s.opts.ConfidenceFloor
	}
	if c > 99 {
		c = 99
	}
	return c
}
