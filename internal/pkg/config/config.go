package config

import (
	"io"
	"time"
)

// Config is the read interface the rest of the application depends on.
//
// Values are addressed by dotted keys ("scheduler.tick_seconds"); a missing
// key yields the type's zero value.
type Config interface {
	io.Closer

	// GetString returns the value for key as a string.
	GetString(key string) string
	// GetBool returns the value for key as a bool.
	GetBool(key string) bool
	// GetInt returns the value for key as an int.
	GetInt(key string) int
	// GetInt32 returns the value for key as an int32.
	GetInt32(key string) int32
	// GetInt64 returns the value for key as an int64.
	GetInt64(key string) int64
	// GetFloat64 returns the value for key as a float64.
	GetFloat64(key string) float64
	// GetArray returns the comma-separated value for key as a slice.
	GetArray(key string) []string

	// GetSecond returns the integer value for key as a duration in seconds.
	GetSecond(key string) time.Duration
	// GetMinute returns the integer value for key as a duration in minutes.
	GetMinute(key string) time.Duration
	// GetHour returns the integer value for key as a duration in hours.
	GetHour(key string) time.Duration
}
