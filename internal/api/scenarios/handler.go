// Package scenarios provides HTTP handlers for incident drill control.
package scenarios

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/corewatch/internal/scenario"
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

// Handler handles scenario control endpoints.
type Handler struct {
	orch *scenario.Orchestrator
}

// NewHandler creates a new scenarios handler.
func NewHandler(orch *scenario.Orchestrator) *Handler {
	return &Handler{orch: orch}
}

// List returns all scenario definitions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, h.orch.List())
}

// Active returns the current orchestrator state.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, h.orch.Status())
}

// Start begins the named scenario, stopping any running one first.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.orch.Start(r.Context(), id); err != nil {
		if errors.Is(err, scenario.ErrUnknownScenario) {
			jsonError(w, http.StatusNotFound, errCodeNotFound, "scenario not found")
			return
		}
		log.Printf("scenarios: start %s: %v", id, err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	jsonOK(w, h.orch.Status())
}

// Stop halts the running scenario. Stopping an idle orchestrator
// succeeds.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	h.orch.Stop(r.Context())
	jsonOK(w, h.orch.Status())
}
