package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eduwang/tmssr-250809/internal/model"
	"github.com/eduwang/tmssr-250809/internal/service"
	"github.com/eduwang/tmssr-250809/internal/transport/rest/middleware"
)

// ResponseHandler handles learner submission endpoints
type ResponseHandler struct {
	responseSvc *service.ResponseService
}

// NewResponseHandler creates a new response handler
func NewResponseHandler(responseSvc *service.ResponseService) *ResponseHandler {
	return &ResponseHandler{responseSvc: responseSvc}
}

// SubmitRequest is the request body for a transcript submission. Lines
// carry only the learner's part of the dialogue; the active scenario's
// seed lines are prepended server side.
type SubmitRequest struct {
	Lines []model.ChatEntry `json:"lines"`
}

// Submit handles POST /v1/responses
func (h *ResponseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.responseSvc.SubmitConversation(r.Context(), claims, req.Lines)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// SubmitWithFeedback handles POST /v1/responses/feedback
func (h *ResponseHandler) SubmitWithFeedback(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.responseSvc.SubmitWithFeedback(r.Context(), claims, req.Lines)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// ListMine handles GET /v1/responses/mine
func (h *ResponseHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	responses, err := h.responseSvc.ListMine(r.Context(), claims)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"responses": responses})
}

// Delete handles DELETE /v1/responses/{responseId}
func (h *ResponseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	err := h.responseSvc.Delete(r.Context(), claims, mux.Vars(r)["responseId"], middleware.IsAdmin(r.Context()))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
