package notifier

import (
	"context"
	"errors"
	"time"
)

// Payload is the opaque data carried by a wake-up registration and handed
// back on fire. All fields are required; a payload failing Validate is
// rejected at the notifier boundary before it can reach the scheduler.
type Payload struct {
	// AlarmID is the id of the alarm that owns the registration.
	AlarmID string
	// ExpectedTriggerAt is the instant the wake-up was scheduled for.
	// The scheduler compares it to the actual invocation time to detect
	// spurious early callbacks.
	ExpectedTriggerAt time.Time
	// IsSnooze marks the registration as a temporary snooze instance.
	IsSnooze bool
}

var (
	// errMissingAlarmID is returned when a payload has no alarm id.
	errMissingAlarmID = errors.New("payload: alarm id is required")
	// errMissingTriggerTime is returned when a payload has no expected trigger time.
	errMissingTriggerTime = errors.New("payload: expected trigger time is required")
)

// Validate checks that all required payload fields are set.
func (p Payload) Validate() error {
	if p.AlarmID == "" {
		return errMissingAlarmID
	}

	if p.ExpectedTriggerAt.IsZero() {
		return errMissingTriggerTime
	}

	return nil
}

// FireHandler is the callback invoked when a registration fires.
// invokedAt is the notifier's actual invocation time, which best-effort
// platforms may place well before or after the scheduled instant.
type FireHandler func(token string, payload Payload, invokedAt time.Time)

// Notifier registers one-shot wake-ups. Timing is best-effort: the host
// platform may deliver late, and unreliable implementations have been seen
// to deliver at registration time. Callers must validate invocation time
// against the payload's ExpectedTriggerAt.
type Notifier interface {
	// Schedule registers a wake-up at triggerAt and returns a cancellable
	// token. The payload is validated before registration.
	Schedule(ctx context.Context, triggerAt time.Time, payload Payload) (string, error)
	// Cancel revokes a registration. Cancelling a token that already fired,
	// was already cancelled or is unknown is a successful no-op.
	Cancel(ctx context.Context, token string)
}
