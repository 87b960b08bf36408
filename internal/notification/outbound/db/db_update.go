package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/sdwijaya/herald/internal/notification/entity"
)

// UpdateStatus applies a conditional status transition. The WHERE clause
// checks the expected prior status, so a record already moved by another
// worker reports applied=false instead of being overwritten.
func (s *DB) UpdateStatus(ctx context.Context, u entity.UpdateStatus) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "UpdateStatus")
	defer func() { s.endSpan(span, err) }()

	if !u.Valid() {
		err = fmt.Errorf("illegal status transition %s to %s", u.ExpectedStatus.String(), u.Status.String())
		return false, err
	}

	sets := []string{"status = $1", "updated_at = NOW()"}
	args := []any{int16(u.Status)}

	next := func(expr string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}

	switch {
	case u.ScheduledFor != nil:
		next("scheduled_for = $%d", *u.ScheduledFor)
	case u.ClearSchedule:
		sets = append(sets, "scheduled_for = NULL")
	}
	if u.RetryCount != nil {
		next("retry_count = $%d", *u.RetryCount)
	}
	if u.LastRetryAt != nil {
		next("last_retry_at = $%d", *u.LastRetryAt)
	}
	if u.FailReason != nil {
		next("fail_reason = $%d", *u.FailReason)
	}
	if u.AggregatedInto != nil {
		next("aggregated_into = $%d", *u.AggregatedInto)
	}
	if u.SentAt != nil {
		next("sent_at = $%d", *u.SentAt)
	}
	if u.DeliveredAt != nil {
		next("delivered_at = $%d", *u.DeliveredAt)
	}
	if u.ReadAt != nil {
		next("read_at = $%d", *u.ReadAt)
	}

	args = append(args, u.ID, int16(u.ExpectedStatus))
	query := fmt.Sprintf(
		"UPDATE notifications SET %s WHERE id = $%d AND status = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	tag, err := s.conn.Exec(ctx, query, args...)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}
