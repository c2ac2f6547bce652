// Package readings provides HTTP handlers for sensor reading endpoints.
package readings

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/corewatch/internal/models"
	"github.com/good-yellow-bee/corewatch/internal/storage"
	"github.com/good-yellow-bee/corewatch/internal/telemetry"
)

// Response helpers (local to avoid import cycle with api package)

type errorResponse struct {
	Error errorBody `json:"error"`
}
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
type dataResponse struct {
	Data any `json:"data"`
}

const (
	errCodeBadRequest    = "BAD_REQUEST"
	errCodeInternalError = "INTERNAL_ERROR"

	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dataResponse{Data: data}); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// Handler handles sensor reading endpoints.
type Handler struct {
	latest  *telemetry.LatestStore
	history storage.ReadingRepository
	timeout time.Duration
}

// NewHandler creates a new readings handler.
func NewHandler(latest *telemetry.LatestStore, history storage.ReadingRepository, timeout time.Duration) *Handler {
	return &Handler{latest: latest, history: history, timeout: timeout}
}

// List returns the latest reading per sensor, most recent first. An
// optional kind query parameter filters by sensor kind.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	kindParam := r.URL.Query().Get("kind")
	if kindParam == "" {
		jsonOK(w, h.latest.GetAll())
		return
	}

	kind := models.ParseSensorKind(kindParam)
	if kind == models.KindUnknown {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "unknown sensor kind: "+kindParam)
		return
	}
	jsonOK(w, h.latest.GetByKind(kind))
}

// History returns recent persisted readings for one sensor.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sensorID := chi.URLParam(r, "sensorID")

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, http.StatusBadRequest, errCodeBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxHistoryLimit {
			n = maxHistoryLimit
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.history.ListBySensor(ctx, sensorID, limit)
	if err != nil {
		log.Printf("readings: list history for %s: %v", sensorID, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	jsonOK(w, items)
}
