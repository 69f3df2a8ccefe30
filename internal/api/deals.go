package api

import (
	"bytes"
	"fmt"
	"net/http"

	"diligence-tracker/internal/model"
	"diligence-tracker/internal/report"
)

func (h *Handler) handleListDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := h.svc.Deals.List(r.Context())
	if err != nil {
		writeError(w, r, err, "failed to load deals")
		return
	}
	if deals == nil {
		deals = []model.Deal{}
	}
	writeJSON(w, http.StatusOK, deals)
}

func (h *Handler) handleCreateDeal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyName string `json:"company_name"`
		Title       string `json:"title"`
		Industry    string `json:"industry"`
	}
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	deal := model.Deal{CompanyName: req.CompanyName, Title: req.Title, Industry: req.Industry}
	if err := h.svc.Deals.Create(r.Context(), &deal); err != nil {
		writeError(w, r, err, "failed to create deal")
		return
	}
	writeJSON(w, http.StatusCreated, deal)
}

func (h *Handler) handleGetDeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	deal, err := h.svc.Deals.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "failed to load deal")
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	d, err := h.svc.Dashboards.ForDeal(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleReport renders into a buffer so a failure never leaves a partial page.
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	c, o, err := listQuery(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := h.svc.Reports.HTML(r.Context(), &buf, id, c, o); err != nil {
		writeError(w, r, err, report.MsgExportFailed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	c, o, err := listQuery(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := h.svc.Reports.CSV(r.Context(), &buf, id, c, o); err != nil {
		writeError(w, r, err, report.MsgExportFailed)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="deal-%d-requests.csv"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
