package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/eduwang/tmssr-250809/internal/cache"
	"github.com/eduwang/tmssr-250809/internal/model"
	"github.com/eduwang/tmssr-250809/internal/service"
	"github.com/eduwang/tmssr-250809/internal/transport/rest/middleware"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authSvc  *service.AuthService
	sessions cache.SessionCache
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService, sessions cache.SessionCache) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, sessions: sessions}
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.Login(req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	// record the issued session; a cache failure is not a login failure
	if h.sessions != nil {
		session := &model.LoginSession{
			ID:          resp.SessionID,
			UID:         req.UID,
			DisplayName: req.DisplayName,
			Admin:       resp.Admin,
			IssuedAt:    time.Now(),
		}
		if err := h.sessions.Set(r.Context(), session); err != nil {
			log.Printf("session cache write failed: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Session handles GET /v1/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	session, err := h.sessions.Get(r.Context(), claims.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Logout handles POST /v1/auth/logout. The JWT itself stays valid until
// expiry; logout drops the session record.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.sessions.Delete(r.Context(), claims.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// errorStatus maps service errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrScenarioNotFound),
		errors.Is(err, service.ErrResponseNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoActiveScenario):
		return http.StatusConflict
	case errors.Is(err, service.ErrScenarioIncomplete),
		errors.Is(err, service.ErrEmptySubmission):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrFeedbackDisabled),
		errors.Is(err, service.ErrNotOwner),
		errors.Is(err, service.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, service.ErrGenerationFailed),
		errors.Is(err, service.ErrGenerationTimeout):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
