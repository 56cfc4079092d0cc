package alarm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DaySet is the set of weekdays a repeating alarm recurs on.
// An empty set means the alarm is one-time.
type DaySet []time.Weekday

// dayLabels maps short lowercase labels to weekdays for parsing.
//
//nolint:gochecknoglobals // Static lookup table.
var dayLabels = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

// ParseDaySet parses a comma-separated list of weekday labels
// ("mon,wed,fri"). Full weekday names are accepted too. An empty string
// yields an empty set.
func ParseDaySet(s string) (DaySet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	seen := make(map[time.Weekday]bool)

	var set DaySet

	for _, part := range strings.Split(s, ",") {
		label := strings.ToLower(strings.TrimSpace(part))
		if len(label) > 3 {
			label = label[:3]
		}

		day, ok := dayLabels[label]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}

		if seen[day] {
			continue
		}

		seen[day] = true
		set = append(set, day)
	}

	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })

	return set, nil
}

// Contains reports whether day is in the set.
func (d DaySet) Contains(day time.Weekday) bool {
	for _, candidate := range d {
		if candidate == day {
			return true
		}
	}

	return false
}

// IsEmpty reports whether the set holds no weekdays, i.e. the alarm is one-time.
func (d DaySet) IsEmpty() bool {
	return len(d) == 0
}

// Clone returns a copy of the set to avoid leaking internal references.
func (d DaySet) Clone() DaySet {
	if d == nil {
		return nil
	}

	cloned := make(DaySet, len(d))
	copy(cloned, d)

	return cloned
}

// String formats the set as "Mon, Wed" or "one-time" when empty.
func (d DaySet) String() string {
	if d.IsEmpty() {
		return "one-time"
	}

	labels := make([]string, 0, len(d))
	for _, day := range d {
		labels = append(labels, day.String()[:3])
	}

	return strings.Join(labels, ", ")
}

// MarshalJSON encodes the set as a list of short labels, e.g. ["Mon","Wed"].
func (d DaySet) MarshalJSON() ([]byte, error) {
	labels := make([]string, 0, len(d))
	for _, day := range d {
		labels = append(labels, day.String()[:3])
	}

	return json.Marshal(labels)
}

// UnmarshalJSON decodes the set from a list of weekday labels.
func (d *DaySet) UnmarshalJSON(data []byte) error {
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return err
	}

	parsed, err := ParseDaySet(strings.Join(labels, ","))
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}
