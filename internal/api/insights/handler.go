// Package insights provides HTTP handlers for recommendation endpoints.
package insights

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

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

const (
	errCodeBadRequest    = "BAD_REQUEST"
	errCodeInternalError = "INTERNAL_ERROR"

	defaultLimit = 20
	maxLimit     = 100
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

// Handler handles recommendation endpoints.
type Handler struct {
	recs    storage.RecommendationRepository
	timeout time.Duration
}

// NewHandler creates a new insights handler.
func NewHandler(recs storage.RecommendationRepository, timeout time.Duration) *Handler {
	return &Handler{recs: recs, timeout: timeout}
}

// List returns recent recommendations, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, http.StatusBadRequest, errCodeBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxLimit {
			n = maxLimit
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.recs.ListRecent(ctx, limit)
	if err != nil {
		log.Printf("insights: list recent: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}
	jsonOK(w, items)
}
