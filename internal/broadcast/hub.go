package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/good-yellow-bee/corewatch/internal/alerting"
	"github.com/good-yellow-bee/corewatch/internal/metrics"
	"github.com/good-yellow-bee/corewatch/internal/models"
	"github.com/good-yellow-bee/corewatch/internal/storage"
	"github.com/good-yellow-bee/corewatch/internal/telemetry"
)

const (
	// snapshotRecommendations bounds the recommendation history in the
	// initial snapshot.
	snapshotRecommendations = 20
	// snapshotLogs bounds the system log history in the initial snapshot.
	snapshotLogs = 50
	// observerQueueSize is the per-observer outbound buffer. A full
	// buffer drops the event for that observer only.
	observerQueueSize = 64
	// pendingLimit bounds events buffered while an observer's snapshot
	// is being assembled.
	pendingLimit = 256
)

// ScenarioSource reports the current scenario state for snapshots.
type ScenarioSource interface {
	Status() models.ScenarioStatus
}

// Hub tracks connected observers and fans events out to them. Each
// observer receives one initial_data snapshot before any incremental
// event; events arriving while the snapshot is assembled are buffered
// and flushed behind it, so no observer sees an update older than its
// snapshot's position in the event stream.
type Hub struct {
	latest   *telemetry.LatestStore
	alerts   *alerting.Manager
	recs     storage.RecommendationRepository
	logs     storage.SystemLogRepository
	conns    storage.ConnectionRepository
	scenario ScenarioSource

	mu        sync.Mutex
	observers map[*observer]struct{}
}

// NewHub creates a hub. scenario may be nil until the orchestrator is
// wired in.
func NewHub(latest *telemetry.LatestStore, alerts *alerting.Manager, recs storage.RecommendationRepository, logs storage.SystemLogRepository, conns storage.ConnectionRepository) *Hub {
	return &Hub{
		latest:    latest,
		alerts:    alerts,
		recs:      recs,
		logs:      logs,
		conns:     conns,
		observers: make(map[*observer]struct{}),
	}
}

// SetScenarioSource attaches the scenario state source used in
// snapshots. Call before serving connections.
func (h *Hub) SetScenarioSource(src ScenarioSource) {
	h.scenario = src
}

// ServeConn runs one observer connection to completion: register,
// snapshot, then stream until the peer disconnects or ctx is
// cancelled.
func (h *Hub) ServeConn(ctx context.Context, conn *websocket.Conn) {
	obs := newObserver(conn)

	h.mu.Lock()
	h.observers[obs] = struct{}{}
	count := len(h.observers)
	h.mu.Unlock()
	metrics.ObserversConnected.Set(float64(count))

	defer h.remove(obs)

	go obs.writeLoop()
	go obs.readLoop()

	snapshot, err := h.Snapshot(ctx)
	if err != nil {
		log.Printf("broadcast: snapshot for %s: %v", conn.RemoteAddr(), err)
		obs.close()
		return
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("broadcast: marshal snapshot: %v", err)
		obs.close()
		return
	}

	// Enqueue the snapshot, then flush everything buffered while it
	// was assembled. From here the observer receives live events
	// directly.
	h.mu.Lock()
	obs.enqueue(payload)
	for _, buffered := range obs.pending {
		obs.enqueue(buffered)
	}
	obs.pending = nil
	obs.ready = true
	h.mu.Unlock()

	select {
	case <-ctx.Done():
		obs.close()
	case <-obs.done:
	}
}

// Snapshot assembles the current full state for an initial_data event.
func (h *Hub) Snapshot(ctx context.Context) (*InitialDataEvent, error) {
	alerts, err := h.alerts.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot alerts: %w", err)
	}
	recs, err := h.recs.ListRecent(ctx, snapshotRecommendations)
	if err != nil {
		return nil, fmt.Errorf("snapshot recommendations: %w", err)
	}
	logs, err := h.logs.ListRecent(ctx, snapshotLogs)
	if err != nil {
		return nil, fmt.Errorf("snapshot logs: %w", err)
	}
	conns, err := h.conns.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot connections: %w", err)
	}

	event := &InitialDataEvent{
		Type:            EventInitialData,
		Sensors:         h.latest.GetAll(),
		Alerts:          alerts,
		Recommendations: recs,
		Logs:            logs,
		Connections:     conns,
	}
	if h.scenario != nil {
		status := h.scenario.Status()
		event.Scenario = &status
	}
	return event, nil
}

// BroadcastReading pushes a sensor_update to all observers.
func (h *Hub) BroadcastReading(reading models.Reading) {
	h.broadcast(EventSensorUpdate, SensorUpdateEvent{Type: EventSensorUpdate, Reading: reading})
}

// BroadcastAlert pushes an alert_update to all observers.
func (h *Hub) BroadcastAlert(alert models.Alert) {
	h.broadcast(EventAlertUpdate, AlertUpdateEvent{Type: EventAlertUpdate, Alert: alert})
}

// BroadcastRecommendation pushes an ai_recommendation to all observers.
func (h *Hub) BroadcastRecommendation(rec models.Recommendation) {
	h.broadcast(EventRecommendation, RecommendationEvent{Type: EventRecommendation, Recommendation: rec})
}

// BroadcastLogEntry pushes a system_log to all observers.
func (h *Hub) BroadcastLogEntry(entry models.SystemLogEntry) {
	h.broadcast(EventSystemLog, SystemLogEvent{Type: EventSystemLog, SystemLogEntry: entry})
}

// ObserverCount returns the number of connected observers.
func (h *Hub) ObserverCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

// broadcast marshals the event once and enqueues it for every
// observer. Observers still waiting for their snapshot buffer it;
// a slow observer drops it without affecting the others.
func (h *Hub) broadcast(typ EventType, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("broadcast: marshal %s: %v", typ, err)
		return
	}
	metrics.EventsBroadcast.WithLabelValues(string(typ)).Inc()

	h.mu.Lock()
	defer h.mu.Unlock()
	for obs := range h.observers {
		if !obs.ready {
			if len(obs.pending) < pendingLimit {
				obs.pending = append(obs.pending, payload)
			} else {
				metrics.EventsDropped.Inc()
			}
			continue
		}
		obs.enqueue(payload)
	}
}

// remove unregisters an observer and releases its resources.
func (h *Hub) remove(obs *observer) {
	h.mu.Lock()
	if _, ok := h.observers[obs]; ok {
		delete(h.observers, obs)
	}
	count := len(h.observers)
	h.mu.Unlock()

	metrics.ObserversConnected.Set(float64(count))
	obs.close()
}
