// Package connections provides HTTP handlers for data source status.
package connections

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/good-yellow-bee/corewatch/internal/models"
	"github.com/good-yellow-bee/corewatch/internal/storage"
)

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

const errCodeInternalError = "INTERNAL_ERROR"

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

// ObserverCounter reports how many dashboard observers are connected.
type ObserverCounter interface {
	ObserverCount() int
}

// ListResponse pairs the data source rows with the observer count.
type ListResponse struct {
	Sources   []*models.ServerConnection `json:"sources"`
	Observers int                        `json:"observers"`
}

// Handler handles data source status endpoints.
type Handler struct {
	conns     storage.ConnectionRepository
	observers ObserverCounter
	timeout   time.Duration
}

// NewHandler creates a new connections handler.
func NewHandler(conns storage.ConnectionRepository, observers ObserverCounter, timeout time.Duration) *Handler {
	return &Handler{conns: conns, observers: observers, timeout: timeout}
}

// List returns the known data sources and the connected observer count.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sources, err := h.conns.List(ctx)
	if err != nil {
		log.Printf("connections: list: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	resp := &ListResponse{Sources: sources}
	if h.observers != nil {
		resp.Observers = h.observers.ObserverCount()
	}
	jsonOK(w, resp)
}
