package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sdwijaya/herald/internal/notification/entity"
)

func scanNotification(row pgx.Row) (*entity.Notification, error) {
	var (
		n          entity.Notification
		channel    int16
		priority   int16
		status     int16
		failReason sql.NullString
	)

	err := row.Scan(
		&n.ID, &n.UserID, &channel, &priority, &n.Category, &n.Subject, &n.Message,
		&n.Template, &n.TemplateData, &status, &n.ContentHash, &n.ScheduledFor, &n.ExpiresAt,
		&n.RetryCount, &n.LastRetryAt, &failReason,
		&n.AggregatedInto, &n.AggregatedFrom, &n.SentAt, &n.DeliveredAt, &n.ReadAt,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.Channel = entity.Channel(channel)
	n.Priority = entity.Priority(priority)
	n.Status = entity.Status(status)
	n.FailReason = failReason.String

	return &n, nil
}

func (s *DB) GetNotification(ctx context.Context, id int64) (_ *entity.Notification, err error) {
	ctx, span := s.startSpan(ctx, "GetNotification")
	defer func() { s.endSpan(span, err) }()

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	n, err := scanNotification(s.conn.QueryRow(ctx, query, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return n, nil
}

func (s *DB) ListNotifications(ctx context.Context, filter entity.ListFilter) (_ []entity.Notification, err error) {
	ctx, span := s.startSpan(ctx, "ListNotifications")
	defer func() { s.endSpan(span, err) }()

	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1
		  AND ($2::smallint = 0 OR channel = $2)
		  AND ($3::smallint = 0 OR status = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := s.conn.Query(ctx, query,
		filter.UserID,
		int16(filter.Channel),
		int16(filter.Status),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	items := make([]entity.Notification, 0, filter.Limit)
	for rows.Next() {
		n, scanErr := scanNotification(rows)
		if scanErr != nil {
			return nil, s.mapError(scanErr)
		}
		items = append(items, *n)
	}

	return items, s.mapError(rows.Err())
}

// FindDue returns waiting notifications whose wakeup time arrived,
// highest priority first. Records parked for aggregation have no wakeup
// time and are excluded.
func (s *DB) FindDue(ctx context.Context, now time.Time, limit int32) (_ []entity.Notification, err error) {
	ctx, span := s.startSpan(ctx, "FindDue")
	defer func() { s.endSpan(span, err) }()

	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE status IN ($1, $2)
		  AND scheduled_for IS NOT NULL
		  AND scheduled_for <= $3
		ORDER BY priority DESC, scheduled_for ASC
		LIMIT $4`

	rows, err := s.conn.Query(ctx, query,
		int16(entity.StatusScheduled),
		int16(entity.StatusQueued),
		now,
		limit,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	items := make([]entity.Notification, 0, limit)
	for rows.Next() {
		n, scanErr := scanNotification(rows)
		if scanErr != nil {
			return nil, s.mapError(scanErr)
		}
		items = append(items, *n)
	}

	return items, s.mapError(rows.Err())
}

// ExistsDuplicate reports whether a live notification with the
// fingerprint exists since the given time. FAILED and CANCELLED records
// do not count; they never reached the user.
func (s *DB) ExistsDuplicate(ctx context.Context, contentHash string, since time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ExistsDuplicate")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE content_hash = $1
			  AND created_at >= $2
			  AND status NOT IN ($3, $4)
		)`

	var exists bool
	err = s.conn.QueryRow(ctx, query,
		contentHash,
		since,
		int16(entity.StatusFailed),
		int16(entity.StatusCancelled),
	).Scan(&exists)
	if err != nil {
		return false, s.mapError(err)
	}

	return exists, nil
}

// CountDelivered counts SENT and DELIVERED notifications for the rate
// check window.
func (s *DB) CountDelivered(ctx context.Context, userID int64, ch entity.Channel, since time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountDelivered")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1
		  AND channel = $2
		  AND status IN ($3, $4)
		  AND COALESCE(sent_at, updated_at) >= $5`

	var count int64
	err = s.conn.QueryRow(ctx, query,
		userID,
		int16(ch),
		int16(entity.StatusSent),
		int16(entity.StatusDelivered),
		since,
	).Scan(&count)
	if err != nil {
		return 0, s.mapError(err)
	}

	return count, nil
}

func (s *DB) ListAttempts(ctx context.Context, notificationID int64) (_ []entity.DeliveryAttempt, err error) {
	ctx, span := s.startSpan(ctx, "ListAttempts")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT id, notification_id, attempt, success,
			COALESCE(provider_ref, ''), COALESCE(fail_reason, ''), attempted_at
		FROM notification_attempts
		WHERE notification_id = $1
		ORDER BY attempt ASC`

	rows, err := s.conn.Query(ctx, query, notificationID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var items []entity.DeliveryAttempt
	for rows.Next() {
		var a entity.DeliveryAttempt
		if scanErr := rows.Scan(
			&a.ID, &a.NotificationID, &a.Attempt, &a.Success,
			&a.ProviderRef, &a.FailReason, &a.AttemptedAt,
		); scanErr != nil {
			return nil, s.mapError(scanErr)
		}
		items = append(items, a)
	}

	return items, s.mapError(rows.Err())
}
