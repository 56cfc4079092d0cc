package manage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/alarmd/alarmd/internal/config"
	domain "github.com/alarmd/alarmd/internal/domain/alarm"
	"github.com/alarmd/alarmd/internal/logger"
	repository "github.com/alarmd/alarmd/internal/repository/alarms"
)

// Options carries the settings shared by every CLI verb.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// AlarmsFile provides an optional alarms file override.
	AlarmsFile string
}

// errAmbiguousID is returned when an id prefix matches several alarms.
var errAmbiguousID = errors.New("ambiguous alarm id")

// openRepository resolves the alarms file from options and configuration.
func openRepository(opts *Options) (*repository.FileRepository, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	alarmsFile := cfg.AlarmsFile
	if opts.AlarmsFile != "" {
		alarmsFile = opts.AlarmsFile
	}

	return repository.NewFileRepository(alarmsFile), nil
}

// loadRecords reads the collection, treating a missing file as empty.
func loadRecords(ctx context.Context, repo repository.Repository) ([]*domain.Record, error) {
	records, err := repo.LoadAll(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}

	return records, nil
}

// findByID resolves an alarm by full id or unique id prefix.
func findByID(records []*domain.Record, id string) (*domain.Record, error) {
	var match *domain.Record

	for _, record := range records {
		if record.ID == id {
			return record, nil
		}

		if strings.HasPrefix(record.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("%w: %q", errAmbiguousID, id)
			}

			match = record
		}
	}

	if match == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlarmNotFound, id)
	}

	return match, nil
}

// AddInput carries the alarm definition for the add verb.
type AddInput struct {
	// Time is the "HH:MM" time-of-day.
	Time string
	// Repeat is a comma-separated weekday list, empty for one-time.
	Repeat string
	// Disabled creates the alarm without arming it on the next daemon start.
	Disabled bool
	// Snooze enables the snooze policy.
	Snooze bool
	// SnoozeDuration is the snooze length in minutes.
	SnoozeDuration int
}

// RunAdd appends a new alarm to the collection and reports when it will ring.
func RunAdd(ctx context.Context, opts *Options, input AddInput) error {
	ctx = logger.WithName(ctx, "alarmd-add")

	timeOfDay, err := domain.ParseTimeOfDay(input.Time)
	if err != nil {
		return err
	}

	repeat, err := domain.ParseDaySet(input.Repeat)
	if err != nil {
		return err
	}

	now := time.Now()
	record := &domain.Record{
		ID:             uuid.NewString(),
		TimeOfDay:      timeOfDay,
		RepeatDays:     repeat,
		Enabled:        !input.Disabled,
		SnoozeEnabled:  input.Snooze,
		SnoozeDuration: input.SnoozeDuration,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if record.SnoozeEnabled && record.SnoozeDuration == 0 {
		record.SnoozeDuration = domain.DefaultSnoozeDuration
	}

	if err := record.Validate(); err != nil {
		return err
	}

	repo, err := openRepository(opts)
	if err != nil {
		return err
	}

	records, err := loadRecords(ctx, repo)
	if err != nil {
		return err
	}

	records = append(records, record)
	if err := repo.SaveAll(ctx, records); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}

	label, err := domain.DescribeNextOccurrence(timeOfDay, repeat, now)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Alarm added",
		"alarm_id", record.ID, "time_of_day", timeOfDay.String(),
		"repeat", repeat.String(), "next", label)

	return nil
}

// SetInput carries the optional field changes for the set verb.
type SetInput struct {
	// ID is the target alarm id or unique prefix.
	ID string
	// Time is the new "HH:MM" time-of-day, empty to keep.
	Time string
	// Repeat is the new weekday list; nil means keep, empty string clears.
	Repeat *string
	// SnoozeDuration is the new snooze length in minutes, zero to keep.
	SnoozeDuration int
}

// RunSet edits an existing alarm in place.
func RunSet(ctx context.Context, opts *Options, input SetInput) error {
	ctx = logger.WithName(ctx, "alarmd-set")

	repo, err := openRepository(opts)
	if err != nil {
		return err
	}

	records, err := loadRecords(ctx, repo)
	if err != nil {
		return err
	}

	record, err := findByID(records, input.ID)
	if err != nil {
		return err
	}

	if input.Time != "" {
		timeOfDay, err := domain.ParseTimeOfDay(input.Time)
		if err != nil {
			return err
		}

		record.TimeOfDay = timeOfDay
	}

	if input.Repeat != nil {
		repeat, err := domain.ParseDaySet(*input.Repeat)
		if err != nil {
			return err
		}

		record.RepeatDays = repeat
	}

	if input.SnoozeDuration > 0 {
		record.SnoozeEnabled = true
		record.SnoozeDuration = input.SnoozeDuration
	}

	if err := record.Validate(); err != nil {
		return err
	}

	record.UpdatedAt = time.Now()

	if err := repo.SaveAll(ctx, records); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}

	logger.InfoKV(ctx, "Alarm updated", "alarm_id", record.ID)

	return nil
}

// RunSetEnabled toggles an alarm. Disabling also clears any recorded
// pending trigger so the store never claims a live registration for a
// disabled alarm.
func RunSetEnabled(ctx context.Context, opts *Options, id string, enabled bool) error {
	ctx = logger.WithName(ctx, "alarmd-toggle")

	repo, err := openRepository(opts)
	if err != nil {
		return err
	}

	records, err := loadRecords(ctx, repo)
	if err != nil {
		return err
	}

	record, err := findByID(records, id)
	if err != nil {
		return err
	}

	record.Enabled = enabled
	record.UpdatedAt = time.Now()

	if !enabled {
		record.PendingTrigger = ""
		record.IsSnoozeInstance = false
	}

	if err := repo.SaveAll(ctx, records); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}

	logger.InfoKV(ctx, "Alarm toggled", "alarm_id", record.ID, "enabled", enabled)

	return nil
}

// RunRemove deletes an alarm from the collection.
func RunRemove(ctx context.Context, opts *Options, id string) error {
	ctx = logger.WithName(ctx, "alarmd-remove")

	repo, err := openRepository(opts)
	if err != nil {
		return err
	}

	records, err := loadRecords(ctx, repo)
	if err != nil {
		return err
	}

	record, err := findByID(records, id)
	if err != nil {
		return err
	}

	remaining := make([]*domain.Record, 0, len(records)-1)

	for _, candidate := range records {
		if candidate.ID != record.ID {
			remaining = append(remaining, candidate)
		}
	}

	if err := repo.SaveAll(ctx, remaining); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}

	logger.InfoKV(ctx, "Alarm removed", "alarm_id", record.ID)

	return nil
}

// ListInput controls the list verb output.
type ListInput struct {
	// Upcoming expands this many future occurrences per alarm when positive.
	Upcoming int
}

// RunList prints the collection sorted by time-of-day.
func RunList(ctx context.Context, opts *Options, input ListInput) error {
	repo, err := openRepository(opts)
	if err != nil {
		return err
	}

	records, err := loadRecords(ctx, repo)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("no alarms")

		return nil
	}

	now := time.Now()

	enabledColor := color.New(color.FgGreen)
	disabledColor := color.New(color.FgHiBlack)

	for _, record := range records {
		line := fmt.Sprintf("%-8s  %s  %-18s", shortID(record.ID), record.TimeOfDay, record.RepeatDays)

		if !record.Enabled {
			disabledColor.Printf("%s  disabled\n", line)

			continue
		}

		label, err := domain.DescribeNextOccurrence(record.TimeOfDay, record.RepeatDays, now)
		if err != nil {
			label = "?"
		}

		enabledColor.Printf("%s  next: %s\n", line, label)

		if input.Upcoming > 1 && !record.RepeatDays.IsEmpty() {
			occurrences, err := domain.Upcoming(record.TimeOfDay, record.RepeatDays, now, input.Upcoming)
			if err != nil {
				continue
			}

			for _, occurrence := range occurrences {
				fmt.Printf("          %s\n", occurrence.Format("Mon 2006-01-02 15:04"))
			}
		}
	}

	return nil
}

// shortID abbreviates a uuid for list output.
func shortID(id string) string {
	const width = 8
	if len(id) <= width {
		return id
	}

	return id[:width]
}
