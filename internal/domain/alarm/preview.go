package alarm

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// rruleWeekdays maps Go weekdays to their RFC 5545 BYDAY counterparts.
//
//nolint:gochecknoglobals // Static lookup table.
var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Upcoming returns the next count occurrences of an alarm after now,
// expanded through a weekly recurrence rule. A one-time alarm yields a
// single occurrence regardless of count.
func Upcoming(timeOfDay TimeOfDay, repeat DaySet, now time.Time, count int) ([]time.Time, error) {
	first, err := NextTrigger(timeOfDay, repeat, now)
	if err != nil {
		return nil, err
	}

	if repeat.IsEmpty() || count <= 1 {
		return []time.Time{first}, nil
	}

	byDay := make([]rrule.Weekday, 0, len(repeat))
	for _, day := range repeat {
		byDay = append(byDay, rruleWeekdays[day])
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   first,
		Byweekday: byDay,
		Count:     count,
	})
	if err != nil {
		return nil, fmt.Errorf("build recurrence rule: %w", err)
	}

	return rule.All(), nil
}
