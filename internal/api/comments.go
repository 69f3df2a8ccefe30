package api

import (
	"net/http"
)

func (h *Handler) handleListComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	threads, err := h.svc.Comments.Threads(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "failed to load comments")
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

func (h *Handler) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var req struct {
		Content  string `json:"content"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	c, err := h.svc.Comments.Create(r.Context(), id, actor(r), req.Content, req.ParentID)
	if err != nil {
		writeError(w, r, err, "failed to add comment")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleApproveComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	c, err := h.svc.Comments.Approve(r.Context(), id, actor(r))
	if err != nil {
		writeError(w, r, err, "failed to approve comment")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleSendComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	c, err := h.svc.Comments.SendToCustomer(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "failed to send comment")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.svc.Comments.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, "failed to delete comment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
