package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/good-yellow-bee/corewatch/internal/alerting"
	"github.com/good-yellow-bee/corewatch/internal/eventlog"
	"github.com/good-yellow-bee/corewatch/internal/models"
)

type memAlertRepo struct {
	mu     sync.Mutex
	alerts map[string]*models.Alert
}

func newMemAlertRepo() *memAlertRepo {
	return &memAlertRepo{alerts: make(map[string]*models.Alert)}
}

func (r *memAlertRepo) Create(ctx context.Context, a *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.New().String()
	a.CreatedAt = time.Now()
	copied := *a
	r.alerts[a.ID] = &copied
	return nil
}

func (r *memAlertRepo) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alerts[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (r *memAlertRepo) ListActive(ctx context.Context) ([]*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []*models.Alert
	for _, a := range r.alerts {
		if a.Active {
			copied := *a
			active = append(active, &copied)
		}
	}
	return active, nil
}

func (r *memAlertRepo) Deactivate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.alerts[id]; ok {
		a.Active = false
	}
	return nil
}

type memLogRepo struct{}

func (memLogRepo) Create(ctx context.Context, e *models.SystemLogEntry) error { return nil }
func (memLogRepo) ListRecent(ctx context.Context, limit int) ([]*models.SystemLogEntry, error) {
	return nil, nil
}
func (memLogRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type capturePub struct {
	mu     sync.Mutex
	alerts []models.Alert
}

func (p *capturePub) BroadcastAlert(a models.Alert) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, a)
}

func newTestSetup(t *testing.T) (http.Handler, *alerting.Manager, *capturePub) {
	t.Helper()
	manager := alerting.NewManager(newMemAlertRepo())
	pub := &capturePub{}
	recorder := eventlog.NewRecorder(memLogRepo{}, nil)
	h := NewHandler(manager, pub, recorder, 5*time.Second)

	r := chi.NewRouter()
	r.Get("/alerts", h.List)
	r.Post("/alerts/{id}/ack", h.Acknowledge)
	return r, manager, pub
}

func TestListActiveAlerts(t *testing.T) {
	router, manager, _ := newTestSetup(t)
	ctx := context.Background()

	if _, err := manager.MaybeRaise(ctx, "TEMP-01", models.SeverityWarning, "breach"); err != nil {
		t.Fatalf("raise alert: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/alerts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Data []*models.Alert `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].SensorID != "TEMP-01" {
		t.Errorf("alerts = %+v", resp.Data)
	}
}

func TestAcknowledgeAlert(t *testing.T) {
	router, manager, pub := newTestSetup(t)
	ctx := context.Background()

	alert, err := manager.MaybeRaise(ctx, "TEMP-01", models.SeverityCritical, "breach")
	if err != nil || alert == nil {
		t.Fatalf("raise alert: (%v, %v)", alert, err)
	}

	req := httptest.NewRequest(http.MethodPost, "/alerts/"+alert.ID+"/ack", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data models.Alert `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Active {
		t.Error("acknowledged alert should be inactive in the response")
	}
	if len(pub.alerts) != 1 {
		t.Errorf("broadcast %d alerts, want 1 state-change event", len(pub.alerts))
	}
}

func TestAcknowledgeUnknownAlert(t *testing.T) {
	router, _, _ := newTestSetup(t)

	req := httptest.NewRequest(http.MethodPost, "/alerts/no-such-id/ack", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
