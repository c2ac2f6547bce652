package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/good-yellow-bee/corewatch/internal/alerting"
	"github.com/good-yellow-bee/corewatch/internal/models"
	"github.com/good-yellow-bee/corewatch/internal/telemetry"
)

type memAlertRepo struct {
	active []*models.Alert
}

func (r *memAlertRepo) Create(ctx context.Context, a *models.Alert) error { return nil }
func (r *memAlertRepo) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	return nil, nil
}
func (r *memAlertRepo) ListActive(ctx context.Context) ([]*models.Alert, error) {
	return r.active, nil
}
func (r *memAlertRepo) Deactivate(ctx context.Context, id string) error { return nil }

type memRecRepo struct{ recs []*models.Recommendation }

func (r *memRecRepo) Create(ctx context.Context, rec *models.Recommendation) error { return nil }
func (r *memRecRepo) ListRecent(ctx context.Context, limit int) ([]*models.Recommendation, error) {
	return r.recs, nil
}
func (r *memRecRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type memLogRepo struct{ entries []*models.SystemLogEntry }

func (r *memLogRepo) Create(ctx context.Context, e *models.SystemLogEntry) error { return nil }
func (r *memLogRepo) ListRecent(ctx context.Context, limit int) ([]*models.SystemLogEntry, error) {
	return r.entries, nil
}
func (r *memLogRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type memConnRepo struct{ conns []*models.ServerConnection }

func (r *memConnRepo) Upsert(ctx context.Context, c *models.ServerConnection) error { return nil }
func (r *memConnRepo) List(ctx context.Context) ([]*models.ServerConnection, error) {
	return r.conns, nil
}

type staticScenario struct{ status models.ScenarioStatus }

func (s *staticScenario) Status() models.ScenarioStatus { return s.status }

// envelope decodes just the type discriminator of a stream event.
type envelope struct {
	Type string `json:"type"`
}

func newTestHub(latest *telemetry.LatestStore) *Hub {
	return NewHub(latest,
		alerting.NewManager(&memAlertRepo{}),
		&memRecRepo{},
		&memLogRepo{},
		&memConnRepo{},
	)
}

// startHubServer serves the hub over a real websocket endpoint.
func startHubServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.ServeConn(r.Context(), conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) (string, []byte) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env.Type, payload
}

func TestServeConnSendsInitialDataFirst(t *testing.T) {
	latest := telemetry.NewLatestStore()
	latest.Upsert(models.Reading{
		ID: "r1", SensorID: "CORE-TEMP-01", Kind: models.KindTemperature,
		Value: 581, Unit: "°C", Status: models.StatusNormal, CreatedAt: time.Now(),
	})
	hub := newTestHub(latest)
	hub.SetScenarioSource(&staticScenario{})
	srv := startHubServer(t, hub)

	conn := dial(t, srv)

	typ, payload := readEvent(t, conn)
	if typ != string(EventInitialData) {
		t.Fatalf("first event type = %q, want initial_data", typ)
	}

	var snapshot InitialDataEvent
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snapshot.Sensors) != 1 || snapshot.Sensors[0].SensorID != "CORE-TEMP-01" {
		t.Errorf("snapshot sensors = %+v", snapshot.Sensors)
	}
	if snapshot.Scenario == nil || snapshot.Scenario.Active {
		t.Errorf("snapshot scenario = %+v, want inactive status", snapshot.Scenario)
	}
}

func TestBroadcastAfterSnapshot(t *testing.T) {
	hub := newTestHub(telemetry.NewLatestStore())
	srv := startHubServer(t, hub)
	conn := dial(t, srv)

	// The handshake completes once initial_data arrives.
	if typ, _ := readEvent(t, conn); typ != string(EventInitialData) {
		t.Fatalf("first event = %q, want initial_data", typ)
	}

	hub.BroadcastReading(models.Reading{ID: "r2", SensorID: "PRES-01", Value: 15.3, CreatedAt: time.Now()})
	typ, payload := readEvent(t, conn)
	if typ != string(EventSensorUpdate) {
		t.Fatalf("event type = %q, want sensor_update", typ)
	}
	var update SensorUpdateEvent
	if err := json.Unmarshal(payload, &update); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if update.SensorID != "PRES-01" {
		t.Errorf("update sensor = %q, want PRES-01", update.SensorID)
	}

	hub.BroadcastAlert(models.Alert{ID: "a1", SensorID: "PRES-01", Severity: models.SeverityWarning, Active: true})
	if typ, _ := readEvent(t, conn); typ != string(EventAlertUpdate) {
		t.Errorf("event type = %q, want alert_update", typ)
	}

	hub.BroadcastRecommendation(models.Recommendation{ID: "rec1", Title: "t"})
	if typ, _ := readEvent(t, conn); typ != string(EventRecommendation) {
		t.Errorf("event type = %q, want ai_recommendation", typ)
	}

	hub.BroadcastLogEntry(models.SystemLogEntry{ID: "l1", Level: models.LevelInfo, Message: "m"})
	if typ, _ := readEvent(t, conn); typ != string(EventSystemLog) {
		t.Errorf("event type = %q, want system_log", typ)
	}
}

func TestPerObserverOrdering(t *testing.T) {
	hub := newTestHub(telemetry.NewLatestStore())
	srv := startHubServer(t, hub)
	conn := dial(t, srv)

	if typ, _ := readEvent(t, conn); typ != string(EventInitialData) {
		t.Fatalf("first event must be initial_data, got %q", typ)
	}

	const n = 20
	for i := 0; i < n; i++ {
		hub.BroadcastReading(models.Reading{SensorID: "SEQ", Value: float64(i), CreatedAt: time.Now()})
	}

	for i := 0; i < n; i++ {
		typ, payload := readEvent(t, conn)
		if typ != string(EventSensorUpdate) {
			t.Fatalf("event %d type = %q", i, typ)
		}
		var update SensorUpdateEvent
		if err := json.Unmarshal(payload, &update); err != nil {
			t.Fatalf("decode update %d: %v", i, err)
		}
		if update.Value != float64(i) {
			t.Fatalf("event %d value = %v, broadcast order not preserved", i, update.Value)
		}
	}
}

func TestObserverIsolation(t *testing.T) {
	hub := newTestHub(telemetry.NewLatestStore())
	srv := startHubServer(t, hub)

	healthy := dial(t, srv)
	doomed := dial(t, srv)

	if typ, _ := readEvent(t, healthy); typ != string(EventInitialData) {
		t.Fatalf("healthy first event = %q", typ)
	}
	if typ, _ := readEvent(t, doomed); typ != string(EventInitialData) {
		t.Fatalf("doomed first event = %q", typ)
	}

	// Kill one observer; the other must keep receiving.
	doomed.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ObserverCount() > 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.ObserverCount() != 1 {
		t.Fatalf("ObserverCount = %d, want 1 after disconnect", hub.ObserverCount())
	}

	hub.BroadcastReading(models.Reading{SensorID: "ISO-01", Value: 1, CreatedAt: time.Now()})
	typ, payload := readEvent(t, healthy)
	if typ != string(EventSensorUpdate) {
		t.Fatalf("event type = %q", typ)
	}
	var update SensorUpdateEvent
	if err := json.Unmarshal(payload, &update); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if update.SensorID != "ISO-01" {
		t.Errorf("sensor = %q, want ISO-01", update.SensorID)
	}
}

func TestInboundFramesDoNotCloseConnection(t *testing.T) {
	hub := newTestHub(telemetry.NewLatestStore())
	srv := startHubServer(t, hub)
	conn := dial(t, srv)

	if typ, _ := readEvent(t, conn); typ != string(EventInitialData) {
		t.Fatalf("first event = %q", typ)
	}

	// Garbage from the peer is logged and discarded.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	hub.BroadcastReading(models.Reading{SensorID: "STILL-ALIVE", Value: 1, CreatedAt: time.Now()})
	if typ, _ := readEvent(t, conn); typ != string(EventSensorUpdate) {
		t.Errorf("event type = %q, connection should survive inbound garbage", typ)
	}
}

func TestConcurrentBroadcasters(t *testing.T) {
	hub := newTestHub(telemetry.NewLatestStore())
	srv := startHubServer(t, hub)
	conn := dial(t, srv)

	if typ, _ := readEvent(t, conn); typ != string(EventInitialData) {
		t.Fatalf("first event = %q", typ)
	}

	var wg sync.WaitGroup
	const writers = 4
	const perWriter = 10
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				hub.BroadcastReading(models.Reading{SensorID: "C", Value: 1, CreatedAt: time.Now()})
			}
		}()
	}
	wg.Wait()

	// Queue size covers writers*perWriter, so nothing is dropped.
	for i := 0; i < writers*perWriter; i++ {
		if typ, _ := readEvent(t, conn); typ != string(EventSensorUpdate) {
			t.Fatalf("event %d type = %q", i, typ)
		}
	}
}
