package alarm

import "errors"

var (
	// ErrInvalidTimeFormat is returned when an hour/minute pair is out of range
	// or a time-of-day string cannot be parsed.
	ErrInvalidTimeFormat = errors.New("invalid time format")
	// ErrAlarmNotFound is returned when no alarm exists for the requested id.
	ErrAlarmNotFound = errors.New("alarm not found")
	// ErrSchedulingFailed is returned when the notifier rejects a registration.
	ErrSchedulingFailed = errors.New("scheduling failed")
	// ErrPersistenceFailed is returned when the alarm store rejects a write.
	ErrPersistenceFailed = errors.New("persistence failed")
)
