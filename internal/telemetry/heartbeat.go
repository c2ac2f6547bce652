package telemetry

import (
	"context"
	"log"
	"time"

	"github.com/good-yellow-bee/corewatch/internal/eventlog"
	"github.com/good-yellow-bee/corewatch/internal/models"
	"github.com/good-yellow-bee/corewatch/internal/sensorcfg"
	"github.com/good-yellow-bee/corewatch/internal/storage"
)

// Heartbeat periodically upserts a connected status row for every data
// source in the catalog and records a health log entry.
type Heartbeat struct {
	catalog  *sensorcfg.Catalog
	conns    storage.ConnectionRepository
	recorder *eventlog.Recorder
	interval time.Duration
}

// NewHeartbeat creates a heartbeat loop. Interval defaults to one minute.
func NewHeartbeat(catalog *sensorcfg.Catalog, conns storage.ConnectionRepository, recorder *eventlog.Recorder, interval time.Duration) *Heartbeat {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Heartbeat{
		catalog:  catalog,
		conns:    conns,
		recorder: recorder,
		interval: interval,
	}
}

// Run beats on the configured interval until ctx is cancelled, then
// marks all sources disconnected.
func (h *Heartbeat) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.BeatOnce(ctx, time.Now())

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case <-ticker.C:
			h.BeatOnce(ctx, time.Now())
		}
	}
}

// BeatOnce upserts the connected status of every source at the given
// time. Exported for deterministic tests.
func (h *Heartbeat) BeatOnce(ctx context.Context, now time.Time) {
	sources := h.catalog.Sources()
	for _, source := range sources {
		conn := &models.ServerConnection{
			Source:        source,
			Status:        models.ConnectionConnected,
			LastHeartbeat: now,
		}
		if err := h.conns.Upsert(ctx, conn); err != nil {
			log.Printf("telemetry: heartbeat %s: %v", source, err)
		}
	}

	if h.recorder != nil {
		h.recorder.Info(ctx, "health", "heartbeat: %d sensors across %d sources", len(h.catalog.Configs()), len(sources))
	}
}

// shutdown marks every source disconnected. Uses a fresh context: the
// run context is already cancelled when this is called.
func (h *Heartbeat) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, source := range h.catalog.Sources() {
		conn := &models.ServerConnection{
			Source:        source,
			Status:        models.ConnectionDisconnected,
			LastHeartbeat: time.Now(),
		}
		if err := h.conns.Upsert(ctx, conn); err != nil {
			log.Printf("telemetry: mark %s disconnected: %v", source, err)
		}
	}
}
