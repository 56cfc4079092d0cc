package alarm

import (
	"fmt"
	"time"
)

const (
	// MinSnoozeDuration is the shortest allowed snooze, in minutes.
	MinSnoozeDuration = 1
	// MaxSnoozeDuration is the longest allowed snooze, in minutes.
	MaxSnoozeDuration = 60
	// DefaultSnoozeDuration is used when a snooze is requested without an
	// explicit duration.
	DefaultSnoozeDuration = 10
)

// State describes where an alarm currently is in its lifecycle.
type State string

const (
	// StateDisabled means the alarm holds no pending trigger.
	StateDisabled State = "disabled"
	// StateArmed means the alarm has a pending trigger for its regular occurrence.
	StateArmed State = "armed"
	// StateSnoozed means the pending trigger is a temporary snooze instance.
	StateSnoozed State = "snoozed"
)

// Record is the persistent alarm entity.
type Record struct {
	// ID is the opaque stable identifier, immutable after creation.
	ID string `json:"id"`
	// TimeOfDay is the wall-clock time the alarm rings at.
	TimeOfDay TimeOfDay `json:"time_of_day"`
	// RepeatDays is the weekly repeat set; empty means one-time.
	RepeatDays DaySet `json:"repeat_days,omitempty"`
	// Enabled indicates whether the alarm should hold a pending trigger.
	Enabled bool `json:"enabled"`
	// SnoozeEnabled indicates whether ringing may be snoozed.
	SnoozeEnabled bool `json:"snooze_enabled"`
	// SnoozeDuration is the snooze length in minutes, [1, 60].
	SnoozeDuration int `json:"snooze_duration_minutes"`
	// PendingTrigger is the token of the outstanding notifier registration,
	// empty iff the alarm is not currently armed.
	PendingTrigger string `json:"pending_trigger,omitempty"`
	// IsSnoozeInstance marks the pending trigger as a temporary snooze
	// rather than the alarm's regular occurrence.
	IsSnoozeInstance bool `json:"is_snooze_instance,omitempty"`
	// CreatedAt is when the alarm was created. Informational only.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the alarm was last mutated. Informational only.
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the record's time-of-day and snooze policy.
func (r *Record) Validate() error {
	if err := r.TimeOfDay.Validate(); err != nil {
		return err
	}

	if r.SnoozeEnabled &&
		(r.SnoozeDuration < MinSnoozeDuration || r.SnoozeDuration > MaxSnoozeDuration) {
		return fmt.Errorf("snooze duration %d out of range [%d, %d]",
			r.SnoozeDuration, MinSnoozeDuration, MaxSnoozeDuration)
	}

	return nil
}

// State derives the lifecycle state from the record's fields.
func (r *Record) State() State {
	switch {
	case r.PendingTrigger == "":
		return StateDisabled
	case r.IsSnoozeInstance:
		return StateSnoozed
	default:
		return StateArmed
	}
}

// Clone returns a deep copy of the record to avoid leaking internal references.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	cloned := *r
	cloned.RepeatDays = r.RepeatDays.Clone()

	return &cloned
}
