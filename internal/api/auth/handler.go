package auth

import (
	"encoding/json"
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// Handler handles authentication endpoints. CoreWatch runs with a
// single configured operator account; credentials come from server
// configuration, not storage.
type Handler struct {
	username       string
	passwordHash   string
	jwtService     *JWTService
	lockoutTracker *LockoutTracker
}

// NewHandler creates a new auth handler.
func NewHandler(username, passwordHash string, jwt *JWTService, lockout *LockoutTracker) *Handler {
	return &Handler{
		username:       username,
		passwordHash:   passwordHash,
		jwtService:     jwt,
		lockoutTracker: lockout,
	}
}

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

// LoginResponse is returned on successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Error codes and messages
const (
	errCodeBadRequest    = "BAD_REQUEST"
	errCodeUnauthorized  = "UNAUTHORIZED"
	errCodeAccountLocked = "ACCOUNT_LOCKED"
	errCodeInternalError = "INTERNAL_ERROR"
)

// LoginRequest is the request body for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles operator login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "username and password required")
		return
	}

	// Check lockout
	if h.lockoutTracker.IsLocked(req.Username) {
		remaining := h.lockoutTracker.RemainingLockoutTime(req.Username)
		log.Printf("login blocked: account %s locked for %v", req.Username, remaining)
		jsonError(w, http.StatusTooManyRequests, errCodeAccountLocked, "account temporarily locked due to too many failed attempts")
		return
	}

	if req.Username != h.username {
		h.lockoutTracker.RecordFailure(req.Username)
		log.Printf("login failed: unknown user %s", req.Username)
		jsonError(w, http.StatusUnauthorized, errCodeUnauthorized, "invalid credentials")
		return
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)); err != nil {
		h.lockoutTracker.RecordFailure(req.Username)
		log.Printf("login failed: invalid password for user %s", req.Username)
		jsonError(w, http.StatusUnauthorized, errCodeUnauthorized, "invalid credentials")
		return
	}

	// Clear lockout on success
	h.lockoutTracker.ClearFailures(req.Username)

	accessToken, err := h.jwtService.GenerateToken(req.Username)
	if err != nil {
		log.Printf("login error: generate access token: %v", err)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
		return
	}

	log.Printf("login success: user %s", req.Username)

	jsonOK(w, &LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   h.jwtService.TTLSeconds(),
		TokenType:   "Bearer",
	})
}
