package readings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/corewatch/internal/models"
	"github.com/good-yellow-bee/corewatch/internal/telemetry"
)

type memReadingRepo struct {
	bySensor map[string][]*models.Reading
}

func (r *memReadingRepo) Create(ctx context.Context, reading *models.Reading) error { return nil }

func (r *memReadingRepo) ListBySensor(ctx context.Context, sensorID string, limit int) ([]*models.Reading, error) {
	items := r.bySensor[sensorID]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r *memReadingRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func newTestRouter(latest *telemetry.LatestStore, history *memReadingRepo) http.Handler {
	h := NewHandler(latest, history, 5*time.Second)
	r := chi.NewRouter()
	r.Get("/readings", h.List)
	r.Get("/readings/{sensorID}/history", h.History)
	return r
}

func seedLatest() *telemetry.LatestStore {
	latest := telemetry.NewLatestStore()
	now := time.Now()
	latest.Upsert(models.Reading{ID: "r1", SensorID: "TEMP-01", Kind: models.KindTemperature, Value: 580, CreatedAt: now})
	latest.Upsert(models.Reading{ID: "r2", SensorID: "PRES-01", Kind: models.KindPressure, Value: 15.2, CreatedAt: now.Add(time.Second)})
	return latest
}

func decodeReadings(t *testing.T, rec *httptest.ResponseRecorder) []models.Reading {
	t.Helper()
	var resp struct {
		Data []models.Reading `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Data
}

func TestListAll(t *testing.T) {
	router := newTestRouter(seedLatest(), &memReadingRepo{})

	req := httptest.NewRequest(http.MethodGet, "/readings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	readings := decodeReadings(t, rec)
	if len(readings) != 2 {
		t.Fatalf("%d readings, want 2", len(readings))
	}
	// Most recent first.
	if readings[0].SensorID != "PRES-01" {
		t.Errorf("first sensor = %s, want PRES-01", readings[0].SensorID)
	}
}

func TestListFilterByKind(t *testing.T) {
	router := newTestRouter(seedLatest(), &memReadingRepo{})

	req := httptest.NewRequest(http.MethodGet, "/readings?kind=temperature", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	readings := decodeReadings(t, rec)
	if len(readings) != 1 || readings[0].SensorID != "TEMP-01" {
		t.Errorf("filtered readings = %+v", readings)
	}
}

func TestListUnknownKind(t *testing.T) {
	router := newTestRouter(seedLatest(), &memReadingRepo{})

	req := httptest.NewRequest(http.MethodGet, "/readings?kind=seismograph", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHistory(t *testing.T) {
	history := &memReadingRepo{bySensor: map[string][]*models.Reading{
		"TEMP-01": {
			{ID: "h1", SensorID: "TEMP-01", Value: 582},
			{ID: "h2", SensorID: "TEMP-01", Value: 581},
			{ID: "h3", SensorID: "TEMP-01", Value: 580},
		},
	}}
	router := newTestRouter(telemetry.NewLatestStore(), history)

	req := httptest.NewRequest(http.MethodGet, "/readings/TEMP-01/history?limit=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	readings := decodeReadings(t, rec)
	if len(readings) != 2 {
		t.Errorf("%d readings, want limit 2 applied", len(readings))
	}
}

func TestHistoryBadLimit(t *testing.T) {
	router := newTestRouter(telemetry.NewLatestStore(), &memReadingRepo{})

	for _, limit := range []string{"0", "-1", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/readings/TEMP-01/history?limit="+limit, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit %q: status = %d, want 400", limit, rec.Code)
		}
	}
}
