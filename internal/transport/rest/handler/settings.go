package handler

import (
	"encoding/json"
	"net/http"

	"github.com/eduwang/tmssr-250809/internal/service"
)

// SettingsHandler handles the feedback toggle endpoints
type SettingsHandler struct {
	settingsSvc *service.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsSvc *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsSvc: settingsSvc}
}

// FeedbackSettingsRequest is the request body for the admin toggle
type FeedbackSettingsRequest struct {
	Enabled bool `json:"enabled"`
}

// GetFeedback handles GET /v1/settings/feedback
func (h *SettingsHandler) GetFeedback(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.settingsSvc.FeedbackEnabled(r.Context())
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}

// SetFeedback handles PUT /v1/settings/feedback
func (h *SettingsHandler) SetFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.settingsSvc.SetFeedbackEnabled(r.Context(), req.Enabled); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
}
