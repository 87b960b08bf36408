package entity

import (
	"time"

	"github.com/sdwijaya/herald/internal/pkg/valueobject"
)

// Notification is one message moving through the pipeline.
type Notification struct {
	ID       int64
	UserID   int64
	Channel  Channel
	Priority Priority
	Category string
	Subject  string
	Message  string
	// Template optionally names a provider-side template; TemplateData
	// carries its substitution values.
	Template     string
	TemplateData valueobject.JSONMap
	Status       Status
	// ContentHash is the dedup fingerprint over (user, channel, message).
	ContentHash string
	// ScheduledFor is set while the notification waits in SCHEDULED or
	// QUEUED; nil means no wakeup time (aggregation-pending).
	ScheduledFor *time.Time
	// ExpiresAt is a hard cutoff; delivery must not be attempted past it.
	ExpiresAt   *time.Time
	RetryCount  int32
	LastRetryAt *time.Time
	FailReason  string
	// AggregatedInto points at the digest that absorbed this notification.
	AggregatedInto *int64
	// AggregatedFrom lists the originals a digest was built from.
	AggregatedFrom []int64
	SentAt         *time.Time
	DeliveredAt    *time.Time
	ReadAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsDigest reports whether the notification was synthesized from others.
func (n Notification) IsDigest() bool {
	return len(n.AggregatedFrom) > 0
}

// Expired reports whether the delivery cutoff has passed.
func (n Notification) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && !now.Before(*n.ExpiresAt)
}

// CreateNotification carries the fields for a new pipeline record.
type CreateNotification struct {
	ID             int64
	UserID         int64
	Channel        Channel
	Priority       Priority
	Category       string
	Subject        string
	Message        string
	Template       string
	TemplateData   valueobject.JSONMap
	Status         Status
	ContentHash    string
	ScheduledFor   *time.Time
	ExpiresAt      *time.Time
	FailReason     string
	AggregatedFrom []int64
}

// UpdateStatus is a conditional status transition. The store applies it
// only when the record still holds ExpectedStatus, which keeps concurrent
// workers from clobbering each other.
type UpdateStatus struct {
	ID             int64
	ExpectedStatus Status
	Status         Status
	ScheduledFor   *time.Time
	ClearSchedule  bool
	RetryCount     *int32
	LastRetryAt    *time.Time
	FailReason     *string
	AggregatedInto *int64
	SentAt         *time.Time
	DeliveredAt    *time.Time
	ReadAt         *time.Time
}

// Valid reports whether the update describes a legal lifecycle step.
// Keeping the current status is legal; it refreshes the wakeup time of
// an already parked record.
func (u UpdateStatus) Valid() bool {
	return u.Status == u.ExpectedStatus || u.ExpectedStatus.CanTransition(u.Status)
}

// DeliveryAttempt is one recorded call to a channel provider.
type DeliveryAttempt struct {
	ID             int64
	NotificationID int64
	Attempt        int32
	Success        bool
	ProviderRef    string
	FailReason     string
	AttemptedAt    time.Time
}

// ListFilter narrows a notification listing.
type ListFilter struct {
	UserID  int64
	Channel Channel
	Status  Status
	Limit   int32
	Offset  int32
}

// RateUsage is the trailing delivered volume for one (user, channel).
type RateUsage struct {
	Hourly int64
	Daily  int64
}
