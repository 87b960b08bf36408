package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sdwijaya/herald/internal/notification/entity"
)

// contentFingerprint computes the stable dedup hash over the normalized
// (user, channel, message) triple.
func (s *Usecase) contentFingerprint(userID int64, ch entity.Channel, message string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(message)), " ")

	return s.fingerprint.Sum(strconv.FormatInt(userID, 10), ch.String(), normalized)
}

// isDuplicate reports whether a live notification with the same
// fingerprint was created inside the dedup window. A storage error fails
// open: delivering twice beats silently dropping.
func (s *Usecase) isDuplicate(ctx context.Context, contentHash string) bool {
	since := s.clock.Now().Add(-s.settings.dedupWindow)

	exists, err := s.repoDB.ExistsDuplicate(ctx, contentHash, since)
	if err != nil {
		slog.WarnContext(ctx, "dedup check failed, failing open", "error", err)
		return false
	}

	return exists
}
