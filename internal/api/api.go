// Package api exposes the tracker over JSON HTTP.
package api

import (
	"log"
	"net/http"
	"time"

	"diligence-tracker/internal/notify"
	"diligence-tracker/internal/prefs"
	"diligence-tracker/internal/service"
)

// MemberHeader carries the acting team member's id.
const MemberHeader = "X-Member-ID"

// Services are the dependencies of the HTTP handlers.
type Services struct {
	Deals      *service.DealService
	Categories *service.CategoryService
	Members    *service.MemberService
	Requests   *service.RequestService
	Mutator    *service.Mutator
	Bulk       *service.BulkExecutor
	Selections *service.Selections
	Comments   *service.CommentService
	Documents  *service.DocumentService
	Dashboards *service.DashboardService
	Messages   *service.MessageService
	Templates  *service.TemplateService
	Reports    *service.ReportService
	Prefs      *prefs.Store
	Toasts     *notify.Toasts
}

// Handler routes API requests.
type Handler struct {
	svc Services
	mux *http.ServeMux
}

func NewHandler(svc Services) *Handler {
	h := &Handler{svc: svc, mux: http.NewServeMux()}
	h.routes()
	return h
}

func (h *Handler) routes() {
	m := h.mux
	m.HandleFunc("GET /health", h.handleHealth)

	// Deals
	m.HandleFunc("GET /api/deals", h.handleListDeals)
	m.HandleFunc("POST /api/deals", h.handleCreateDeal)
	m.HandleFunc("GET /api/deals/{id}", h.handleGetDeal)
	m.HandleFunc("GET /api/deals/{id}/dashboard", h.handleDashboard)
	m.HandleFunc("GET /api/deals/{id}/report", h.handleReport)
	m.HandleFunc("GET /api/deals/{id}/export.csv", h.handleExportCSV)

	// Requests
	m.HandleFunc("GET /api/deals/{id}/requests", h.handleListRequests)
	m.HandleFunc("POST /api/deals/{id}/requests", h.handleCreateRequest)
	m.HandleFunc("POST /api/deals/{id}/templates/{name}", h.handleApplyTemplate)
	m.HandleFunc("GET /api/templates", h.handleListTemplates)
	m.HandleFunc("GET /api/requests/{id}", h.handleGetRequest)
	m.HandleFunc("PATCH /api/requests/{id}", h.handlePatchRequest)
	m.HandleFunc("DELETE /api/requests/{id}", h.handleDeleteRequest)
	m.HandleFunc("POST /api/requests/{id}/assign-to-me", h.handleAssignToMe)
	m.HandleFunc("POST /api/requests/bulk", h.handleBulk)

	// Selection
	m.HandleFunc("GET /api/selection", h.handleGetSelection)
	m.HandleFunc("POST /api/selection/{id}", h.handleToggleSelection)
	m.HandleFunc("DELETE /api/selection", h.handleClearSelection)

	// Comments
	m.HandleFunc("GET /api/requests/{id}/comments", h.handleListComments)
	m.HandleFunc("POST /api/requests/{id}/comments", h.handleCreateComment)
	m.HandleFunc("POST /api/comments/{id}/approve", h.handleApproveComment)
	m.HandleFunc("POST /api/comments/{id}/send", h.handleSendComment)
	m.HandleFunc("DELETE /api/comments/{id}", h.handleDeleteComment)

	// Documents
	m.HandleFunc("GET /api/requests/{id}/documents", h.handleListDocuments)
	m.HandleFunc("POST /api/requests/{id}/documents", h.handleUploadDocument)
	m.HandleFunc("GET /api/documents/{id}/download", h.handleDownloadDocument)
	m.HandleFunc("DELETE /api/documents/{id}", h.handleDeleteDocument)

	// Broker inbox
	m.HandleFunc("GET /api/messages", h.handleListMessages)
	m.HandleFunc("POST /api/messages", h.handlePostMessage)
	m.HandleFunc("POST /api/messages/{id}/read", h.handleMarkRead)

	// Reference data and UI state
	m.HandleFunc("GET /api/categories", h.handleListCategories)
	m.HandleFunc("GET /api/members", h.handleListMembers)
	m.HandleFunc("GET /api/preferences/columns", h.handleGetColumns)
	m.HandleFunc("PUT /api/preferences/columns", h.handlePutColumns)
	m.HandleFunc("GET /api/notifications", h.handleNotifications)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.mux.ServeHTTP(rec, r)
	log.Printf("[info] %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
