package entity

import (
	"strings"
)

type Channel int16

const (
	ChannelUnknown Channel = 0
	ChannelEmail   Channel = 1
	ChannelSMS     Channel = 2
	ChannelPush    Channel = 3
)

func ChannelFromString(raw string) Channel {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "email":
		return ChannelEmail
	case "sms":
		return ChannelSMS
	case "push":
		return ChannelPush
	default:
		return ChannelUnknown
	}
}

func (c Channel) String() string {
	switch c {
	case ChannelEmail:
		return "email"
	case ChannelSMS:
		return "sms"
	case ChannelPush:
		return "push"
	default:
		return "unknown"
	}
}

// Channels lists every deliverable channel.
func Channels() []Channel {
	return []Channel{ChannelEmail, ChannelSMS, ChannelPush}
}

type Priority int16

const (
	PriorityUnknown Priority = 0
	PriorityLow     Priority = 1
	PriorityMedium  Priority = 2
	PriorityHigh    Priority = 3
	PriorityUrgent  Priority = 4
)

func PriorityFromString(raw string) Priority {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "low":
		return PriorityLow
	case "medium":
		return PriorityMedium
	case "high":
		return PriorityHigh
	case "urgent":
		return PriorityUrgent
	default:
		return PriorityUnknown
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// Bypass reports whether the priority skips quiet hours and rate limits.
func (p Priority) Bypass() bool {
	return p == PriorityHigh || p == PriorityUrgent
}
