package db

import (
	"context"

	"github.com/sdwijaya/herald/internal/notification/entity"
)

func (s *DB) CreateNotification(ctx context.Context, data entity.CreateNotification) (err error) {
	ctx, span := s.startSpan(ctx, "CreateNotification")
	defer func() { s.endSpan(span, err) }()

	const query = `
		INSERT INTO notifications (
			id, user_id, channel, priority, category, subject, message,
			template, template_data, status, content_hash, scheduled_for, expires_at, fail_reason, aggregated_from
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULLIF($14, ''), $15)`

	_, err = s.conn.Exec(ctx, query,
		data.ID,
		data.UserID,
		int16(data.Channel),
		int16(data.Priority),
		data.Category,
		data.Subject,
		data.Message,
		data.Template,
		data.TemplateData,
		int16(data.Status),
		data.ContentHash,
		data.ScheduledFor,
		data.ExpiresAt,
		data.FailReason,
		data.AggregatedFrom,
	)

	return s.mapError(err)
}

func (s *DB) AppendAttempt(ctx context.Context, attempt entity.DeliveryAttempt) (err error) {
	ctx, span := s.startSpan(ctx, "AppendAttempt")
	defer func() { s.endSpan(span, err) }()

	const query = `
		INSERT INTO notification_attempts (
			notification_id, attempt, success, provider_ref, fail_reason, attempted_at
		) VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)`

	_, err = s.conn.Exec(ctx, query,
		attempt.NotificationID,
		attempt.Attempt,
		attempt.Success,
		attempt.ProviderRef,
		attempt.FailReason,
		attempt.AttemptedAt,
	)

	return s.mapError(err)
}
