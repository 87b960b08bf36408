package inbound

import (
	"net/http"
	"time"

	"github.com/sdwijaya/herald/internal/pkg/valueobject"
)

type CreateNotificationRequest struct {
	UserID       int64               `json:"user_id"`
	Channel      string              `json:"channel"`
	Priority     string              `json:"priority"`
	Category     string              `json:"category"`
	Subject      string              `json:"subject"`
	Message      string              `json:"message"`
	Template     string              `json:"template,omitempty"`
	TemplateData valueobject.JSONMap `json:"template_data"`
	ExpiresAt    *time.Time          `json:"expires_at,omitempty"`
}

type CreateNotificationResponse struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// StatusCode reports 202 for every accepted creation: the notification
// is routed asynchronously, so acceptance never means delivery.
func (r CreateNotificationResponse) StatusCode() int {
	return http.StatusAccepted
}

type NotificationResponse struct {
	ID             int64               `json:"id"`
	UserID         int64               `json:"user_id"`
	Channel        string              `json:"channel"`
	Priority       string              `json:"priority"`
	Category       string              `json:"category"`
	Subject        string              `json:"subject"`
	Message        string              `json:"message"`
	Template       string              `json:"template,omitempty"`
	TemplateData   valueobject.JSONMap `json:"template_data,omitempty"`
	Status         string              `json:"status"`
	ScheduledFor   *time.Time          `json:"scheduled_for,omitempty"`
	ExpiresAt      *time.Time          `json:"expires_at,omitempty"`
	RetryCount     int32               `json:"retry_count"`
	LastRetryAt    *time.Time          `json:"last_retry_at,omitempty"`
	FailReason     string              `json:"fail_reason,omitempty"`
	AggregatedInto *int64              `json:"aggregated_into,omitempty"`
	AggregatedFrom []int64             `json:"aggregated_from,omitempty"`
	SentAt         *time.Time          `json:"sent_at,omitempty"`
	DeliveredAt    *time.Time          `json:"delivered_at,omitempty"`
	ReadAt         *time.Time          `json:"read_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

type NotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
}

type DeliveryAttemptResponse struct {
	Attempt     int32     `json:"attempt"`
	Success     bool      `json:"success"`
	ProviderRef string    `json:"provider_ref,omitempty"`
	FailReason  string    `json:"fail_reason,omitempty"`
	AttemptedAt time.Time `json:"attempted_at"`
}

type NotificationDetailResponse struct {
	NotificationResponse
	Attempts []DeliveryAttemptResponse `json:"attempts"`
}

type QuietHoursModel struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ChannelPreferenceModel struct {
	Channel     string           `json:"channel"`
	Enabled     bool             `json:"enabled"`
	QuietHours  *QuietHoursModel `json:"quiet_hours,omitempty"`
	HourlyLimit *int64           `json:"hourly_limit,omitempty"`
	DailyLimit  *int64           `json:"daily_limit,omitempty"`
}

type PreferenceRequest struct {
	QuietHours  *QuietHoursModel         `json:"quiet_hours,omitempty"`
	HourlyLimit *int64                   `json:"hourly_limit,omitempty"`
	DailyLimit  *int64                   `json:"daily_limit,omitempty"`
	Channels    []ChannelPreferenceModel `json:"channels,omitempty"`
}

type PreferenceResponse struct {
	UserID      int64                    `json:"user_id"`
	QuietHours  *QuietHoursModel         `json:"quiet_hours,omitempty"`
	HourlyLimit *int64                   `json:"hourly_limit,omitempty"`
	DailyLimit  *int64                   `json:"daily_limit,omitempty"`
	Channels    []ChannelPreferenceModel `json:"channels"`
	UpdatedAt   time.Time                `json:"updated_at"`
}
