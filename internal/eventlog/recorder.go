// Package eventlog records operational events as SystemLogEntry rows
// and pushes them to connected observers.
package eventlog

import (
	"context"
	"fmt"
	"log"

	"github.com/good-yellow-bee/corewatch/internal/models"
	"github.com/good-yellow-bee/corewatch/internal/storage"
)

// Publisher delivers a log entry to connected observers.
type Publisher interface {
	BroadcastLogEntry(entry models.SystemLogEntry)
}

// Recorder persists system log entries and fans them out. A failed
// persist is logged and the entry is still broadcast.
type Recorder struct {
	repo storage.SystemLogRepository
	pub  Publisher
}

// NewRecorder creates a recorder. pub may be nil (e.g. in tests).
func NewRecorder(repo storage.SystemLogRepository, pub Publisher) *Recorder {
	return &Recorder{repo: repo, pub: pub}
}

// Record creates one system log entry.
func (r *Recorder) Record(ctx context.Context, level models.LogLevel, source, format string, args ...any) {
	entry := &models.SystemLogEntry{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
		Source:  source,
	}

	if err := r.repo.Create(ctx, entry); err != nil {
		log.Printf("eventlog: persist entry: %v", err)
	}

	log.Printf("[%s] %s: %s", level, source, entry.Message)

	if r.pub != nil {
		r.pub.BroadcastLogEntry(*entry)
	}
}

// Info records an info-level entry.
func (r *Recorder) Info(ctx context.Context, source, format string, args ...any) {
	r.Record(ctx, models.LevelInfo, source, format, args...)
}

// Warning records a warning-level entry.
func (r *Recorder) Warning(ctx context.Context, source, format string, args ...any) {
	r.Record(ctx, models.LevelWarning, source, format, args...)
}

// Error records an error-level entry.
func (r *Recorder) Error(ctx context.Context, source, format string, args ...any) {
	r.Record(ctx, models.LevelError, source, format, args...)
}
