// Package alerts provides HTTP handlers for alert endpoints.
package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/corewatch/internal/alerting"
	"github.com/good-yellow-bee/corewatch/internal/api/middleware"
	"github.com/good-yellow-bee/corewatch/internal/eventlog"
	"github.com/good-yellow-bee/corewatch/internal/models"
	"github.com/good-yellow-bee/corewatch/internal/storage"
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
	errCodeNotFound      = "NOT_FOUND"
	errCodeInternalError = "INTERNAL_ERROR"
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

// Publisher pushes alert state changes to connected observers.
type Publisher interface {
	BroadcastAlert(alert models.Alert)
}

// Handler handles alert endpoints.
type Handler struct {
	alerts   *alerting.Manager
	pub      Publisher
	recorder *eventlog.Recorder
	timeout  time.Duration
}

// NewHandler creates a new alerts handler.
func NewHandler(alerts *alerting.Manager, pub Publisher, recorder *eventlog.Recorder, timeout time.Duration) *Handler {
	return &Handler{alerts: alerts, pub: pub, recorder: recorder, timeout: timeout}
}

// List returns all active alerts.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.alerts.ListActive(ctx)
	if err != nil {
		log.Printf("alerts: list active: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	jsonOK(w, items)
}

// Acknowledge deactivates an alert and broadcasts the state change.
func (h *Handler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	alert, err := h.alerts.Acknowledge(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			jsonError(w, http.StatusNotFound, errCodeNotFound, "alert not found")
			return
		}
		log.Printf("alerts: acknowledge %s: %v", id, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	if h.pub != nil {
		h.pub.BroadcastAlert(*alert)
	}
	h.recorder.Info(ctx, "operator", "alert %s acknowledged by %s", alert.ID, middleware.GetUsername(r.Context()))

	jsonOK(w, alert)
}
