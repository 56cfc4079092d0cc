package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// mustTime parses an RFC 3339 timestamp without a zone suffix as local time.
func mustTime(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := time.ParseInLocation("2006-01-02T15:04", value, time.Local)
	require.NoError(t, err)

	return parsed
}

// TestNextTrigger covers one-time and repeating alarms with literal scenarios.
func TestNextTrigger(t *testing.T) {
	t.Parallel()

	// 2025-10-20 is a Monday.
	cases := []struct {
		name      string
		timeOfDay TimeOfDay
		repeat    string
		now       string
		want      string
	}{
		{
			name:      "one-time already past rolls to tomorrow",
			timeOfDay: TimeOfDay{Hour: 7, Minute: 30},
			now:       "2025-10-23T08:00",
			want:      "2025-10-24T07:30",
		},
		{
			name:      "one-time still ahead fires today",
			timeOfDay: TimeOfDay{Hour: 7, Minute: 30},
			now:       "2025-10-23T07:00",
			want:      "2025-10-23T07:30",
		},
		{
			name:      "repeating past occurrence waits a full week",
			timeOfDay: TimeOfDay{Hour: 9, Minute: 0},
			repeat:    "mon",
			now:       "2025-10-20T10:00",
			want:      "2025-10-27T09:00",
		},
		{
			name:      "repeating today still qualifies",
			timeOfDay: TimeOfDay{Hour: 9, Minute: 0},
			repeat:    "mon,wed",
			now:       "2025-10-20T08:00",
			want:      "2025-10-20T09:00",
		},
		{
			name:      "repeating picks earliest of the set",
			timeOfDay: TimeOfDay{Hour: 9, Minute: 0},
			repeat:    "mon,wed",
			now:       "2025-10-20T10:00",
			want:      "2025-10-22T09:00",
		},
		{
			name:      "repeating wraps across the weekend",
			timeOfDay: TimeOfDay{Hour: 6, Minute: 15},
			repeat:    "fri",
			now:       "2025-10-25T12:00",
			want:      "2025-10-31T06:15",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repeat, err := ParseDaySet(tc.repeat)
			require.NoError(t, err)

			got, err := NextTrigger(tc.timeOfDay, repeat, mustTime(t, tc.now))
			require.NoError(t, err)
			require.Equal(t, mustTime(t, tc.want), got)
		})
	}
}

// TestNextTrigger_Properties asserts the strictly-after-now and weekday guarantees.
func TestNextTrigger_Properties(t *testing.T) {
	t.Parallel()

	now := mustTime(t, "2025-10-23T07:30")
	timeOfDay := TimeOfDay{Hour: 7, Minute: 30}

	// Candidate equal to now is not "after" and must roll over.
	got, err := NextTrigger(timeOfDay, nil, now)
	require.NoError(t, err)
	require.True(t, got.After(now))
	require.LessOrEqual(t, got.Sub(now), 24*time.Hour)

	// Result weekday is always a member of a non-empty repeat set.
	repeat, err := ParseDaySet("tue,sat")
	require.NoError(t, err)

	for hour := range 24 {
		got, err = NextTrigger(TimeOfDay{Hour: hour, Minute: 5}, repeat, now)
		require.NoError(t, err)
		require.True(t, got.After(now))
		require.True(t, repeat.Contains(got.Weekday()))
	}
}

// TestNextTrigger_RejectsInvalidTime ensures out-of-range input fails with the taxonomy error.
func TestNextTrigger_RejectsInvalidTime(t *testing.T) {
	t.Parallel()

	_, err := NextTrigger(TimeOfDay{Hour: 24, Minute: 0}, nil, time.Now())
	require.ErrorIs(t, err, ErrInvalidTimeFormat)

	_, err = NextTrigger(TimeOfDay{Hour: 7, Minute: 60}, nil, time.Now())
	require.ErrorIs(t, err, ErrInvalidTimeFormat)
}

// TestDescribeNextOccurrence checks the Today/Tomorrow/weekday classification.
func TestDescribeNextOccurrence(t *testing.T) {
	t.Parallel()

	now := mustTime(t, "2025-10-23T07:00")

	label, err := DescribeNextOccurrence(TimeOfDay{Hour: 7, Minute: 30}, nil, now)
	require.NoError(t, err)
	require.Equal(t, "Today", label)

	label, err = DescribeNextOccurrence(TimeOfDay{Hour: 6, Minute: 0}, nil, now)
	require.NoError(t, err)
	require.Equal(t, "Tomorrow", label)

	repeat, err := ParseDaySet("mon")
	require.NoError(t, err)

	label, err = DescribeNextOccurrence(TimeOfDay{Hour: 9, Minute: 0}, repeat, now)
	require.NoError(t, err)
	require.Equal(t, "Monday", label)
}
