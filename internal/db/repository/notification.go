package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catalog-summary/internal/domain"
)

var _ domain.NotificationRepository = (*NotificationRepo)(nil)

// NotificationRepo stores notifications in SQLite. Writes go through the
// single-connection write pool; reads use the read pool.
type NotificationRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewNotificationRepo creates a NotificationRepo. read may equal write.
func NewNotificationRepo(write, read *sql.DB) *NotificationRepo {
	return &NotificationRepo{write: write, read: read}
}

const insertNotification = `
INSERT INTO notifications (id, subject, message, error, operation, status_code, request_id, principal, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Insert stores n, assigning an ID and creation time when missing.
func (r *NotificationRepo) Insert(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = domain.NewID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	n.CreatedAt = n.CreatedAt.UTC()

	_, err := r.write.ExecContext(ctx, insertNotification,
		n.ID, n.Subject, n.Message, n.Error, n.Operation, n.StatusCode, n.RequestID, n.Principal,
		formatTime(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", mapDBError(err))
	}
	return nil
}

const notificationFilter = `
WHERE (? IS NULL OR subject = ?)
  AND (? IS NULL OR created_at >= ?)`

// List returns a page of notifications, newest first, and the total number
// matching filter.
func (r *NotificationRepo) List(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, int64, error) {
	subject := nullable(filter.Subject)
	var since any
	if filter.Since != nil {
		since = formatTime(*filter.Since)
	}
	args := []any{subject, subject, since, since}

	var total int64
	if err := r.read.QueryRowContext(ctx, "SELECT COUNT(*) FROM notifications"+notificationFilter, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := r.read.QueryContext(ctx, `
SELECT id, subject, message, error, operation, status_code, request_id, principal, created_at
FROM notifications`+notificationFilter+`
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`, append(args, filter.Page.Limit(), filter.Page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.Notification, 0, filter.Page.Limit())
	for rows.Next() {
		var (
			n         domain.Notification
			createdAt string
		)
		if err := rows.Scan(&n.ID, &n.Subject, &n.Message, &n.Error, &n.Operation, &n.StatusCode, &n.RequestID, &n.Principal, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		if n.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, 0, fmt.Errorf("parse created_at of %s: %w", n.ID, err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return out, total, nil
}

// DeleteBefore removes notifications created before cutoff and returns how
// many were removed.
func (r *NotificationRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.write.ExecContext(ctx, "DELETE FROM notifications WHERE created_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	return res.RowsAffected()
}
