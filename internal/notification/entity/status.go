package entity

import "strings"

type Status int16

const (
	StatusUnknown    Status = 0
	StatusPending    Status = 1
	StatusProcessing Status = 2
	StatusScheduled  Status = 3
	StatusQueued     Status = 4
	StatusAggregated Status = 5
	StatusSent       Status = 6
	StatusDelivered  Status = 7
	StatusFailed     Status = 8
	StatusRead       Status = 9
	StatusCancelled  Status = 10
)

func StatusFromString(raw string) Status {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "pending":
		return StatusPending
	case "processing":
		return StatusProcessing
	case "scheduled":
		return StatusScheduled
	case "queued":
		return StatusQueued
	case "aggregated":
		return StatusAggregated
	case "sent":
		return StatusSent
	case "delivered":
		return StatusDelivered
	case "failed":
		return StatusFailed
	case "read":
		return StatusRead
	case "cancelled":
		return StatusCancelled
	default:
		return StatusUnknown
	}
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusScheduled:
		return "scheduled"
	case StatusQueued:
		return "queued"
	case StatusAggregated:
		return "aggregated"
	case StatusSent:
		return "sent"
	case StatusDelivered:
		return "delivered"
	case StatusFailed:
		return "failed"
	case StatusRead:
		return "read"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further pipeline transition leaves s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusAggregated, StatusFailed, StatusRead, StatusCancelled:
		return true
	default:
		return false
	}
}

var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusScheduled, StatusQueued, StatusFailed, StatusCancelled},
	StatusProcessing: {StatusSent, StatusQueued, StatusFailed},
	StatusScheduled:  {StatusProcessing, StatusQueued, StatusFailed, StatusCancelled},
	StatusQueued:     {StatusProcessing, StatusScheduled, StatusAggregated, StatusFailed, StatusCancelled},
	StatusSent:       {StatusDelivered, StatusFailed},
	StatusDelivered:  {StatusRead},
}

// CanTransition reports whether moving from s to next is a legal lifecycle step.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}
