package constants

import "time"

// RFC 3339 date-time format string.
// Use this format for all date-time serialization and communication with external systems.
const RFC3339DateTimeFormat = "2006-01-02T15:04:05Z07:00"

const (
	// DefaultRequestTimeout bounds a whole inbound request, including both table service round trips.
	DefaultRequestTimeout = 30 * time.Second

	// WaitlistTable is the table holding one row per registered email.
	WaitlistTable = "waitlist"

	MaxEmailLength = 255
)
