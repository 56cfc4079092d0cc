package alarm

import "time"

// daysPerWeek is the wrap length for weekday offset arithmetic.
const daysPerWeek = 7

// NextTrigger computes the next instant an alarm with the given time-of-day
// and repeat set must fire, relative to now. The result is always strictly
// after now, and its weekday is in repeat when the set is non-empty.
func NextTrigger(timeOfDay TimeOfDay, repeat DaySet, now time.Time) (time.Time, error) {
	if err := timeOfDay.Validate(); err != nil {
		return time.Time{}, err
	}

	candidate := timeOfDay.On(now)

	// One-time alarm: today if still ahead, otherwise tomorrow.
	if repeat.IsEmpty() {
		if candidate.After(now) {
			return candidate, nil
		}

		return timeOfDay.On(now.AddDate(0, 0, 1)), nil
	}

	// Today qualifies when it is in the repeat set and the time has not passed.
	if repeat.Contains(now.Weekday()) && candidate.After(now) {
		return candidate, nil
	}

	// Earliest next occurrence across the repeat set. A day equal to today
	// whose time already passed counts a full week out, never zero.
	var earliest time.Time

	for _, day := range repeat {
		offset := int(day-now.Weekday()+daysPerWeek) % daysPerWeek
		if offset == 0 {
			offset = daysPerWeek
		}

		occurrence := timeOfDay.On(now.AddDate(0, 0, offset))
		if earliest.IsZero() || occurrence.Before(earliest) {
			earliest = occurrence
		}
	}

	return earliest, nil
}

// DescribeNextOccurrence classifies the next trigger relative to now as
// "Today", "Tomorrow" or the weekday name of the trigger.
func DescribeNextOccurrence(timeOfDay TimeOfDay, repeat DaySet, now time.Time) (string, error) {
	trigger, err := NextTrigger(timeOfDay, repeat, now)
	if err != nil {
		return "", err
	}

	switch {
	case sameDate(trigger, now):
		return "Today", nil
	case sameDate(trigger, now.AddDate(0, 0, 1)):
		return "Tomorrow", nil
	default:
		return trigger.Weekday().String(), nil
	}
}

// sameDate reports whether two instants share a calendar date.
func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
