// Package notification records fetch failures raised while building
// summaries and serves them back as a paginated inbox.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"catalog-summary/internal/domain"
	"catalog-summary/internal/metrics"
)

// Service implements domain.Notifier on top of a NotificationRepository.
type Service struct {
	repo    domain.NotificationRepository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewService creates a notification service. repo may be nil, in which case
// notifications are only logged and counted.
func NewService(repo domain.NotificationRepository, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{repo: repo, metrics: m, logger: logger.With("component", "notification")}
}

// NotifyError logs the failure, counts it and stores it. It never fails; a
// storage error is logged and dropped.
func (s *Service) NotifyError(ctx context.Context, err error, message string) {
	n := &domain.Notification{
		Subject:   domain.SubjectFromContext(ctx),
		Message:   message,
		RequestID: domain.RequestIDFromContext(ctx),
	}
	if err != nil {
		n.Error = err.Error()
	}
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		n.Operation = fe.Op
		n.StatusCode = fe.StatusCode
	}
	if p, ok := domain.PrincipalFromContext(ctx); ok {
		n.Principal = p.Subject
	}

	s.logger.Warn(message,
		"subject", n.Subject,
		"operation", n.Operation,
		"status_code", n.StatusCode,
		"request_id", n.RequestID,
		"error", err,
	)
	s.metrics.Notification()

	if s.repo == nil {
		return
	}
	// The fetch that failed may belong to a cancelled request or a rebound
	// controller; the record is still kept.
	if insErr := s.repo.Insert(context.WithoutCancel(ctx), n); insErr != nil {
		s.logger.Error("store notification", "error", insErr, "subject", n.Subject)
	}
}

// List returns a page of notifications, newest first, and the token for the
// next page.
func (s *Service) List(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, string, error) {
	if s.repo == nil {
		return []domain.Notification{}, "", nil
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, "", fmt.Errorf("list notifications: %w", err)
	}
	return items, filter.Page.NextPageToken(total), nil
}

var _ domain.Notifier = (*Service)(nil)
