// Package api provides the HTTP surface of the summary service.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"catalog-summary/internal/domain"
	"catalog-summary/internal/middleware"
)

// SummaryService builds entity summaries.
type SummaryService interface {
	TableSummary(ctx context.Context, fqn string, dctx domain.DisplayContext) (*domain.ViewModel, error)
	DashboardSummary(ctx context.Context, fqn string, dctx domain.DisplayContext) (*domain.ViewModel, error)
	StreamTable(ctx context.Context, fqn string, dctx domain.DisplayContext, send func(domain.ViewModel) error) error
}

// NotificationService lists stored notifications.
type NotificationService interface {
	List(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, string, error)
}

// APIHandler serves the /v1 endpoints.
type APIHandler struct {
	summaries     SummaryService
	notifications NotificationService
	logger        *slog.Logger
}

// NewHandler creates a new APIHandler.
func NewHandler(summaries SummaryService, notifications NotificationService, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		summaries:     summaries,
		notifications: notifications,
		logger:        logger.With("component", "api"),
	}
}

// Routes mounts the handler's endpoints on r.
func (h *APIHandler) Routes(r chi.Router) {
	r.Get("/summaries/tables/{fqn}", h.GetTableSummary)
	r.Get("/summaries/tables/{fqn}/stream", h.StreamTableSummary)
	r.Get("/summaries/dashboards/{fqn}", h.GetDashboardSummary)
	r.Get("/notifications", h.ListNotifications)
}

// fqnParam returns the unescaped {fqn} path parameter.
func fqnParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "fqn")
	fqn, err := url.PathUnescape(raw)
	if err != nil {
		return "", domain.ErrValidation("invalid fqn %q", raw)
	}
	return fqn, nil
}

// GetTableSummary handles GET /v1/summaries/tables/{fqn}.
func (h *APIHandler) GetTableSummary(w http.ResponseWriter, r *http.Request) {
	fqn, dctx, err := summaryParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	vm, err := h.summaries.TableSummary(r.Context(), fqn, dctx)
	if err != nil {
		h.logFailure(r, "table summary", fqn, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vm)
}

// GetDashboardSummary handles GET /v1/summaries/dashboards/{fqn}.
func (h *APIHandler) GetDashboardSummary(w http.ResponseWriter, r *http.Request) {
	fqn, dctx, err := summaryParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	vm, err := h.summaries.DashboardSummary(r.Context(), fqn, dctx)
	if err != nil {
		h.logFailure(r, "dashboard summary", fqn, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vm)
}

func summaryParams(r *http.Request) (string, domain.DisplayContext, error) {
	fqn, err := fqnParam(r)
	if err != nil {
		return "", 0, err
	}
	dctx, err := domain.ParseDisplayContext(r.URL.Query().Get("context"))
	if err != nil {
		return "", 0, err
	}
	return fqn, dctx, nil
}

// notificationJSON is the wire form of a domain.Notification.
type notificationJSON struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject,omitempty"`
	Message    string    `json:"message"`
	Error      string    `json:"error,omitempty"`
	Operation  string    `json:"operation,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Principal  string    `json:"principal,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type notificationList struct {
	Data          []notificationJSON `json:"data"`
	NextPageToken string             `json:"next_page_token,omitempty"`
}

func notificationToAPI(n domain.Notification) notificationJSON {
	return notificationJSON{
		ID:         n.ID,
		Subject:    n.Subject,
		Message:    n.Message,
		Error:      n.Error,
		Operation:  n.Operation,
		StatusCode: n.StatusCode,
		RequestID:  n.RequestID,
		Principal:  n.Principal,
		CreatedAt:  n.CreatedAt,
	}
}

// ListNotifications handles GET /v1/notifications.
func (h *APIHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	filter, err := notificationFilter(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	items, next, err := h.notifications.List(r.Context(), filter)
	if err != nil {
		h.logFailure(r, "list notifications", "", err)
		writeError(w, err)
		return
	}
	out := notificationList{Data: make([]notificationJSON, 0, len(items)), NextPageToken: next}
	for _, n := range items {
		out.Data = append(out.Data, notificationToAPI(n))
	}
	writeJSON(w, http.StatusOK, out)
}

func notificationFilter(q url.Values) (domain.NotificationFilter, error) {
	var f domain.NotificationFilter
	if v := q.Get("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > domain.MaxMaxResults {
			return f, domain.ErrValidation("max_results must be between 1 and %d", domain.MaxMaxResults)
		}
		f.Page.MaxResults = n
	}
	f.Page.PageToken = q.Get("page_token")
	if v := q.Get("subject"); v != "" {
		f.Subject = &v
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, domain.ErrValidation("since must be an RFC 3339 timestamp")
		}
		f.Since = &t
	}
	return f, nil
}

func (h *APIHandler) logFailure(r *http.Request, op, fqn string, err error) {
	level := slog.LevelDebug
	if httpStatusFromDomainError(err) >= http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	h.logger.Log(r.Context(), level, op+" failed",
		"fqn", fqn,
		"error", err,
		"request_id", middleware.RequestIDFromContext(r.Context()),
	)
}
