package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sdwijaya/herald/internal/notification/entity"
	"github.com/sdwijaya/herald/internal/pkg/goerror"
	"github.com/sdwijaya/herald/internal/pkg/valueobject"
)

type CreateInput struct {
	UserID       int64  `validate:"required,gt=0"`
	Channel      string `validate:"required,oneof=email sms push"`
	Priority     string `validate:"required,oneof=low medium high urgent"`
	Category     string `validate:"required,max=64"`
	Subject      string `validate:"required,max=255"`
	Message      string `validate:"required,max=4096"`
	Template     string `validate:"max=128"`
	TemplateData valueobject.JSONMap
	// ExpiresAt, when set, is a hard delivery cutoff and must lie in the
	// future at ingestion time.
	ExpiresAt *time.Time
}

type CreateOutput struct {
	ID        int64
	Status    entity.Status
	Duplicate bool
}

// Create ingests one notification. Duplicates inside the dedup window are
// persisted as CANCELLED and reported back instead of entering the
// pipeline, so the caller still gets an ID to reference.
func (s *Usecase) Create(ctx context.Context, in CreateInput) (*CreateOutput, error) {
	ctx, span := s.startSpan(ctx, "Create")
	defer span.End()

	in.Channel = strings.ToLower(strings.TrimSpace(in.Channel))
	in.Priority = strings.ToLower(strings.TrimSpace(in.Priority))
	in.Category = strings.TrimSpace(in.Category)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	in.Template = strings.TrimSpace(in.Template)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if in.ExpiresAt != nil && !in.ExpiresAt.After(s.clock.Now()) {
		return nil, goerror.NewInvalidFormat("expires_at must be in the future")
	}

	if _, err := s.repoDB.GetPreference(ctx, in.UserID); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewNotFound("user preferences not found")
		}
		slog.ErrorContext(ctx, "failed to repo get preference", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	channel := entity.ChannelFromString(in.Channel)
	contentHash := s.contentFingerprint(in.UserID, channel, in.Message)
	duplicate := s.isDuplicate(ctx, contentHash)

	record := entity.CreateNotification{
		ID:           s.uid.Generate(),
		UserID:       in.UserID,
		Channel:      channel,
		Priority:     entity.PriorityFromString(in.Priority),
		Category:     in.Category,
		Subject:      in.Subject,
		Message:      in.Message,
		Template:     in.Template,
		TemplateData: in.TemplateData,
		Status:       entity.StatusPending,
		ContentHash:  contentHash,
		ExpiresAt:    in.ExpiresAt,
	}
	if duplicate {
		record.Status = entity.StatusCancelled
		record.FailReason = "duplicate within dedup window"
	}

	if err := s.repoDB.CreateNotification(ctx, record); err != nil {
		slog.ErrorContext(ctx, "failed to repo create notification", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if duplicate {
		slog.InfoContext(ctx, "duplicate notification cancelled",
			"notification_id", record.ID,
			"user_id", in.UserID,
			"channel", channel.String(),
		)

		return &CreateOutput{ID: record.ID, Status: entity.StatusCancelled, Duplicate: true}, nil
	}

	if err := s.repoMQ.PublishIngested(ctx, record.ID); err != nil {
		slog.ErrorContext(ctx, "failed to publish ingested notification", "notification_id", record.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &CreateOutput{ID: record.ID, Status: entity.StatusPending}, nil
}
