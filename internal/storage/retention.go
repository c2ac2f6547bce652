package storage

import (
	"context"
	"log"
	"time"
)

// RetentionOptions configures history pruning.
type RetentionOptions struct {
	// Interval is how often the pruner runs.
	Interval time.Duration
	// ReadingAge is the maximum age of reading history rows.
	ReadingAge time.Duration
	// RecommendationAge is the maximum age of recommendation rows.
	RecommendationAge time.Duration
	// SystemLogAge is the maximum age of system log rows.
	SystemLogAge time.Duration
}

// DefaultRetentionOptions returns default retention windows.
func DefaultRetentionOptions() *RetentionOptions {
	return &RetentionOptions{
		Interval:          time.Hour,
		ReadingAge:        24 * time.Hour,
		RecommendationAge: 7 * 24 * time.Hour,
		SystemLogAge:      7 * 24 * time.Hour,
	}
}

// Pruner deletes history rows older than the configured retention
// windows. The latest-value view and active alerts are unaffected.
type Pruner struct {
	storage Storage
	opts    *RetentionOptions
}

// NewPruner creates a pruner.
func NewPruner(storage Storage, opts *RetentionOptions) *Pruner {
	if opts == nil {
		opts = DefaultRetentionOptions()
	}
	return &Pruner{storage: storage, opts: opts}
}

// Run prunes on the configured interval until ctx is cancelled.
func (p *Pruner) Run(ctx context.Context) {
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PruneOnce(ctx, time.Now())
		}
	}
}

// PruneOnce runs one pruning pass at the given time. Exported for
// deterministic tests.
func (p *Pruner) PruneOnce(ctx context.Context, now time.Time) {
	prune := func(name string, age time.Duration, del func(context.Context, time.Time) (int64, error)) {
		if age <= 0 {
			return
		}
		n, err := del(ctx, now.Add(-age))
		if err != nil {
			log.Printf("storage: prune %s: %v", name, err)
			return
		}
		if n > 0 {
			log.Printf("storage: pruned %d %s rows", n, name)
		}
	}

	prune("reading", p.opts.ReadingAge, p.storage.Readings().DeleteBefore)
	prune("recommendation", p.opts.RecommendationAge, p.storage.Recommendations().DeleteBefore)
	prune("system_log", p.opts.SystemLogAge, p.storage.SystemLog().DeleteBefore)
}
