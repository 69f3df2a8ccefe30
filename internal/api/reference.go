package api

import (
	"net/http"

	"diligence-tracker/internal/model"
)

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Categories.List(r.Context())
	if err != nil {
		writeError(w, r, err, "failed to load categories")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.Members.List(r.Context())
	if err != nil {
		writeError(w, r, err, "failed to load members")
		return
	}
	if members == nil {
		members = []model.TeamMember{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *Handler) handleGetColumns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Prefs.Columns())
}

func (h *Handler) handlePutColumns(w http.ResponseWriter, r *http.Request) {
	var cols map[string]bool
	if err := decodeJSON(r, &cols); err != nil {
		badRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Prefs.SetColumns(cols))
}

// handleNotifications drains the caller's pending toasts.
func (h *Handler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Toasts.Drain(actor(r)))
}
