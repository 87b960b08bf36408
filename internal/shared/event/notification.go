// Package event declares the message topics and payloads shared between
// the pipeline stages.
package event

import "time"

const (
	// NotificationInDestination carries freshly ingested notifications to
	// the orchestrator.
	NotificationInDestination string = "notifications.in"
	// NotificationScheduledDestination carries notifications whose
	// scheduled time arrived and are ready for delivery.
	NotificationScheduledDestination string = "notifications.scheduled"
	// NotificationAggregatedDestination carries digest notifications and
	// promoted singletons, ready for delivery.
	NotificationAggregatedDestination string = "notifications.aggregated"
	// NotificationDLQDestination receives notifications that exhausted
	// their delivery attempts.
	NotificationDLQDestination string = "notifications.dlq"
)

const (
	// ConsumerOrchestrator is the group/channel for the decide-and-route stage.
	ConsumerOrchestrator string = "herald_orchestrator"
	// ConsumerDelivery is the group/channel for the delivery stage.
	ConsumerDelivery string = "herald_delivery"
)

// NotificationMessage is the payload for every pipeline topic except the
// dead letter queue. Stages reload state from the store by ID, so the
// message stays a thin pointer.
type NotificationMessage struct {
	NotificationID int64 `json:"notification_id"`
}

// DeadLetterMessage records a notification that could not be delivered.
type DeadLetterMessage struct {
	NotificationID int64     `json:"notification_id"`
	OriginalTopic  string    `json:"original_topic"`
	Reason         string    `json:"reason"`
	FailedAt       time.Time `json:"failed_at"`
}
