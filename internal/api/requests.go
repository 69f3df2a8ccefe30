package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"diligence-tracker/internal/model"
	"diligence-tracker/internal/service"
	"diligence-tracker/internal/tracker"
)

// requestView is a request as the caller currently sees it: stored data with
// unsettled edits applied. Pending names the fields still being saved.
type requestView struct {
	model.Request
	Pending []service.Field `json:"pending,omitempty"`
}

func (h *Handler) view(r model.Request) requestView {
	return requestView{Request: h.svc.Mutator.Overlay(r), Pending: h.svc.Mutator.Pending(r.ID)}
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	dealID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	c, o, err := listQuery(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	ctx := r.Context()
	if _, err := h.svc.Deals.Get(ctx, dealID); err != nil {
		writeError(w, r, err, "failed to load requests")
		return
	}
	all, err := h.svc.Requests.All(ctx, dealID)
	if err != nil {
		writeError(w, r, err, "failed to load requests")
		return
	}
	visible := tracker.Apply(h.svc.Mutator.OverlayAll(all), c, o)

	if r.URL.Query().Get("group") == "1" {
		categories, err := h.svc.Categories.List(ctx)
		if err != nil {
			writeError(w, r, err, "failed to load categories")
			return
		}
		writeJSON(w, http.StatusOK, tracker.GroupByCategory(visible, categories))
		return
	}
	writeJSON(w, http.StatusOK, visible)
}

type createRequestBody struct {
	CategoryID    uint   `json:"category_id"`
	SubcategoryID *uint  `json:"subcategory_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Status        string `json:"status"`
	Priority      string `json:"priority"`
	DueDate       string `json:"due_date"`
	Assignees     []uint `json:"assignees"`
	Reviewers     []uint `json:"reviewers"`
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	dealID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var body createRequestBody
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, err.Error())
		return
	}
	due, err := parseDate(body.DueDate)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	req, err := h.svc.Requests.Create(r.Context(), dealID, service.RequestInput{
		CategoryID:    body.CategoryID,
		SubcategoryID: body.SubcategoryID,
		Title:         body.Title,
		Description:   body.Description,
		Status:        body.Status,
		Priority:      body.Priority,
		DueDate:       due,
		Assignees:     body.Assignees,
		Reviewers:     body.Reviewers,
	}, actor(r))
	if err != nil {
		writeError(w, r, err, "failed to create request")
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) handleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	dealID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	reqs, err := h.svc.Templates.Apply(r.Context(), dealID, r.PathValue("name"), actor(r))
	if err != nil {
		writeError(w, r, err, "failed to apply template")
		return
	}
	writeJSON(w, http.StatusCreated, reqs)
}

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.Templates.Names()
	if err != nil {
		writeError(w, r, err, "failed to list templates")
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	req, err := h.svc.Requests.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "failed to load request")
		return
	}
	writeJSON(w, http.StatusOK, h.view(*req))
}

// handlePatchRequest accepts the edits, answers 202 with the optimistic view
// and saves in the background. Failures surface as notifications.
func (h *Handler) handlePatchRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	changes, err := parseChanges(raw)
	if err != nil {
		writeError(w, r, err, "failed to update request")
		return
	}
	req, err := h.svc.Requests.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "failed to update request")
		return
	}
	view := *req
	now := time.Now().UTC()
	for _, ch := range changes {
		ch.At = now
		if err := h.svc.Mutator.Apply(r.Context(), id, ch, actor(r)); err != nil {
			writeError(w, r, err, "failed to update request")
			return
		}
		ch.ApplyTo(&view, now)
	}
	writeJSON(w, http.StatusAccepted, requestView{Request: view, Pending: h.svc.Mutator.Pending(id)})
}

// parseChanges turns a JSON patch object into validated field changes, in
// field-name order. A null due_date clears it.
func parseChanges(raw map[string]json.RawMessage) ([]service.Change, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", service.ErrValidation)
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	changes := make([]service.Change, 0, len(keys))
	for _, k := range keys {
		v := raw[k]
		var ch service.Change
		switch service.Field(k) {
		case service.FieldStatus, service.FieldPriority, service.FieldDescription:
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return nil, fmt.Errorf("%w: %s must be a string", service.ErrValidation, k)
			}
			switch service.Field(k) {
			case service.FieldStatus:
				ch = service.SetStatus(s)
			case service.FieldPriority:
				ch = service.SetPriority(s)
			default:
				ch = service.SetDescription(s)
			}
		case service.FieldDueDate:
			var s *string
			if err := json.Unmarshal(v, &s); err != nil {
				return nil, fmt.Errorf("%w: due_date must be a date or null", service.ErrValidation)
			}
			var due *time.Time
			if s != nil {
				d, err := parseDate(*s)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", service.ErrValidation, err)
				}
				due = d
			}
			ch = service.SetDueDate(due)
		case service.FieldAssignees:
			var ids []uint
			if err := json.Unmarshal(v, &ids); err != nil {
				return nil, fmt.Errorf("%w: assignees must be a list of ids", service.ErrValidation)
			}
			ch = service.SetAssignees(ids...)
		default:
			return nil, fmt.Errorf("%w: field %q cannot be edited", service.ErrValidation, k)
		}
		if err := ch.Validate(); err != nil {
			return nil, err
		}
		changes = append(changes, ch)
	}
	return changes, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339. Empty input means no date.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", s)
	}
	t = t.UTC()
	return &t, nil
}

func (h *Handler) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, r, service.ErrConfirmationRequired, "")
		return
	}
	if err := h.svc.Requests.Delete(r.Context(), id, actor(r)); err != nil {
		writeError(w, r, err, "failed to delete request")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAssignToMe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.svc.Requests.AssignToMe(r.Context(), id, actor(r)); err != nil {
		writeError(w, r, err, "failed to assign request")
		return
	}
	req, err := h.svc.Requests.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "failed to load request")
		return
	}
	writeJSON(w, http.StatusOK, h.view(*req))
}

// handleBulk runs an action over the ids in the body, or over the caller's
// selection when no ids are given.
func (h *Handler) handleBulk(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []uint `json:"ids"`
		service.BulkAction
	}
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, err.Error())
		return
	}
	var (
		res service.BulkResult
		err error
	)
	if len(body.IDs) > 0 {
		res, err = h.svc.Bulk.Run(r.Context(), body.IDs, body.BulkAction, actor(r))
	} else {
		res, err = h.svc.Bulk.RunSelection(r.Context(), h.svc.Selections.For(actor(r)), body.BulkAction, actor(r))
	}
	if err != nil {
		writeError(w, r, err, "bulk update failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Selections.For(actor(r)).IDs())
}

func (h *Handler) handleToggleSelection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	sel := h.svc.Selections.For(actor(r))
	selected := sel.Toggle(id)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "selected": selected, "count": sel.Len()})
}

func (h *Handler) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	h.svc.Selections.For(actor(r)).Clear()
	w.WriteHeader(http.StatusNoContent)
}
