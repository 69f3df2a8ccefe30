package api

import (
	"net/http"
	"strconv"

	"diligence-tracker/internal/model"
)

type inbox struct {
	Messages []model.BrokerMessage `json:"messages"`
	Unread   int64                 `json:"unread"`
}

// handleListMessages returns the newest messages, or with ?after=ID only the
// messages posted since that id, for polling.
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	var (
		msgs []model.BrokerMessage
		err  error
	)
	if raw := q.Get("after"); raw != "" {
		after, perr := strconv.ParseUint(raw, 10, 64)
		if perr != nil {
			badRequest(w, "invalid after")
			return
		}
		msgs, err = h.svc.Messages.After(ctx, uint(after))
	} else {
		dealID, perr := optionalID(q, "deal")
		if perr != nil {
			badRequest(w, perr.Error())
			return
		}
		limit, _ := strconv.Atoi(q.Get("limit"))
		msgs, err = h.svc.Messages.List(ctx, dealID, limit)
	}
	if err != nil {
		writeError(w, r, err, "failed to load messages")
		return
	}
	unread, err := h.svc.Messages.Unread(ctx)
	if err != nil {
		writeError(w, r, err, "failed to load messages")
		return
	}
	if msgs == nil {
		msgs = []model.BrokerMessage{}
	}
	writeJSON(w, http.StatusOK, inbox{Messages: msgs, Unread: unread})
}

func (h *Handler) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DealID  *uint  `json:"deal_id"`
		Sender  string `json:"sender"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	m := model.BrokerMessage{DealID: req.DealID, Sender: req.Sender, Subject: req.Subject, Body: req.Body}
	if err := h.svc.Messages.Post(r.Context(), &m); err != nil {
		writeError(w, r, err, "failed to post message")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.svc.Messages.MarkRead(r.Context(), id); err != nil {
		writeError(w, r, err, "failed to update message")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
