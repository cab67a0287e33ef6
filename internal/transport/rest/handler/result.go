package handler

import (
	"net/http"
	"strings"

	"github.com/eduwang/tmssr-250809/internal/aggregate"
	"github.com/eduwang/tmssr-250809/internal/export"
	"github.com/eduwang/tmssr-250809/internal/model"
	"github.com/eduwang/tmssr-250809/internal/service"
)

// ResultHandler handles the admin results dashboard and its exports
type ResultHandler struct {
	resultSvc *service.ResultService
}

// NewResultHandler creates a new result handler
func NewResultHandler(resultSvc *service.ResultService) *ResultHandler {
	return &ResultHandler{resultSvc: resultSvc}
}

// resultEntry is the wire shape of one filtered document
type resultEntry struct {
	ID           string             `json:"id"`
	UID          string             `json:"uid"`
	DisplayName  string             `json:"displayName"`
	Kind         model.ResponseKind `json:"kind"`
	Timestamp    string             `json:"timestamp"`
	Date         string             `json:"date"`
	Conversation []model.ConvEntry  `json:"conversation"`
	Feedback     string             `json:"feedback,omitempty"`
}

// Query handles GET /v1/results
func (h *ResultHandler) Query(w http.ResponseWriter, r *http.Request) {
	q, prevUser := parseQuery(r)

	view, err := h.resultSvc.Query(r.Context(), q, prevUser)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	entries := make([]resultEntry, 0, len(view.Entries))
	for _, e := range view.Entries {
		entries = append(entries, resultEntry{
			ID:           e.Doc.ID,
			UID:          e.Doc.UID,
			DisplayName:  e.Doc.DisplayName,
			Kind:         e.Kind,
			Timestamp:    aggregate.FormatTimestamp(e.At),
			Date:         e.DisplayDate,
			Conversation: e.Doc.Conversation,
			Feedback:     e.Doc.Feedback,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results":      entries,
		"users":        view.Users,
		"selectedUser": view.SelectedUser,
		"dates":        view.Dates,
	})
}

// Users handles GET /v1/results/users
func (h *ResultHandler) Users(w http.ResponseWriter, r *http.Request) {
	snap, err := h.resultSvc.Snapshot(r.Context())
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": snap.Users()})
}

// Dates handles GET /v1/results/dates
func (h *ResultHandler) Dates(w http.ResponseWriter, r *http.Request) {
	snap, err := h.resultSvc.Snapshot(r.Context())
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"dates": snap.Dates()})
}

// Reload handles POST /v1/results/reload
func (h *ResultHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.resultSvc.Reload(r.Context()); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

// ExportCSV handles GET /v1/results/export/csv
func (h *ResultHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	entries, ok := h.filteredEntries(w, r)
	if !ok {
		return
	}

	data, err := export.ConversationsCSV(entries)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="results.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ExportPNG handles GET /v1/results/export/png
func (h *ResultHandler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	entries, ok := h.filteredEntries(w, r)
	if !ok {
		return
	}

	snapshot, err := export.RenderSnapshot(entries)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="results.png"`)
	w.WriteHeader(http.StatusOK)
	w.Write(snapshot.PNG)
}

// ExportPDF handles GET /v1/results/export/pdf
func (h *ResultHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	entries, ok := h.filteredEntries(w, r)
	if !ok {
		return
	}

	data, err := export.RenderSnapshotPDF(entries)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="results.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *ResultHandler) filteredEntries(w http.ResponseWriter, r *http.Request) ([]aggregate.Entry, bool) {
	q, prevUser := parseQuery(r)

	view, err := h.resultSvc.Query(r.Context(), q, prevUser)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return nil, false
	}
	return view.Entries, true
}

// parseQuery reads the shared filter query parameters. An absent user
// parameter means every user, an absent date selection admits nothing
// unless allDates is set.
func parseQuery(r *http.Request) (aggregate.Query, string) {
	vals := r.URL.Query()

	user := vals.Get("user")
	if user == "" {
		user = aggregate.AllUsers
	}

	var dates []string
	if raw := vals.Get("dates"); raw != "" {
		for _, d := range strings.Split(raw, ",") {
			if d = strings.TrimSpace(d); d != "" {
				dates = append(dates, d)
			}
		}
	}

	q := aggregate.Query{
		UserID:          user,
		ScenarioID:      vals.Get("scenario"),
		Dates:           dates,
		AllDates:        vals.Get("allDates") == "true",
		IncludeFeedback: vals.Get("includeFeedback") == "true",
	}
	return q, vals.Get("prevUser")
}
