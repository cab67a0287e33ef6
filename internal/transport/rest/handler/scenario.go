package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eduwang/tmssr-250809/internal/model"
	"github.com/eduwang/tmssr-250809/internal/service"
)

// ScenarioHandler handles scenario authoring and the learner-facing
// active-scenario endpoint
type ScenarioHandler struct {
	scenarioSvc *service.ScenarioService
}

// NewScenarioHandler creates a new scenario handler
func NewScenarioHandler(scenarioSvc *service.ScenarioService) *ScenarioHandler {
	return &ScenarioHandler{scenarioSvc: scenarioSvc}
}

// ScenarioRequest is the request body for creating or updating a scenario
type ScenarioRequest struct {
	Title               string            `json:"title"`
	ScenarioText        string            `json:"scenarioText"`
	StarterConversation []model.ChatEntry `json:"starterConversation"`
}

// List handles GET /v1/scenarios
func (h *ScenarioHandler) List(w http.ResponseWriter, r *http.Request) {
	scenarios, err := h.scenarioSvc.List(r.Context())
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"scenarios": scenarios})
}

// Get handles GET /v1/scenarios/{scenarioId}
func (h *ScenarioHandler) Get(w http.ResponseWriter, r *http.Request) {
	scenario, err := h.scenarioSvc.Get(r.Context(), mux.Vars(r)["scenarioId"])
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scenario)
}

// Create handles POST /v1/scenarios
func (h *ScenarioHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	scenario, err := h.scenarioSvc.Create(r.Context(), req.Title, req.ScenarioText, req.StarterConversation)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, scenario)
}

// Update handles PUT /v1/scenarios/{scenarioId}
func (h *ScenarioHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	scenario, err := h.scenarioSvc.Update(r.Context(), mux.Vars(r)["scenarioId"], req.Title, req.ScenarioText, req.StarterConversation)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scenario)
}

// Delete handles DELETE /v1/scenarios/{scenarioId}
func (h *ScenarioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.scenarioSvc.Delete(r.Context(), mux.Vars(r)["scenarioId"]); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Select handles POST /v1/scenarios/{scenarioId}/select
func (h *ScenarioHandler) Select(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["scenarioId"]
	if err := h.scenarioSvc.Select(r.Context(), id); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"selectedScenarioId": id})
}

// Active handles GET /v1/scenario/active
func (h *ScenarioHandler) Active(w http.ResponseWriter, r *http.Request) {
	scenario, err := h.scenarioSvc.Active(r.Context())
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scenario)
}
