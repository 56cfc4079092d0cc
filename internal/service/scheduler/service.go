package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domain "github.com/alarmd/alarmd/internal/domain/alarm"
	"github.com/alarmd/alarmd/internal/logger"
	"github.com/alarmd/alarmd/internal/notifier"
	repo "github.com/alarmd/alarmd/internal/repository/alarms"
)

// FireEvent is surfaced to the daemon when an alarm plausibly fired.
// The caller is expected to follow up with Snooze or Dismiss.
type FireEvent struct {
	// Alarm is a clone of the record at fire time.
	Alarm *domain.Record
	// Token is the consumed registration token.
	Token string
	// IsSnooze marks the fired trigger as a snooze instance.
	IsSnooze bool
	// FiredAt is the notifier's invocation time.
	FiredAt time.Time
}

// CreateInput carries the caller-settable fields of a new alarm.
type CreateInput struct {
	// TimeOfDay is the wall-clock time the alarm rings at.
	TimeOfDay domain.TimeOfDay
	// RepeatDays is the weekly repeat set; empty means one-time.
	RepeatDays domain.DaySet
	// Enabled arms the alarm immediately after creation.
	Enabled bool
	// SnoozeEnabled allows ringing to be snoozed.
	SnoozeEnabled bool
	// SnoozeDuration is the snooze length in minutes.
	SnoozeDuration int
}

// UpdateInput carries the optional field updates for Edit.
// Nil fields are left unchanged.
type UpdateInput struct {
	TimeOfDay      *domain.TimeOfDay
	RepeatDays     *domain.DaySet
	Enabled        *bool
	SnoozeEnabled  *bool
	SnoozeDuration *int
}

const defaultEventBuffer = 16

// Service is the alarm lifecycle manager. It owns the record set
// exclusively: callers only ever see clones.
//
// Locking protocol: ops serializes lifecycle operations per alarm id, so
// two transitions for one alarm never interleave while distinct alarms
// proceed concurrently. mu guards the maps and every record field write;
// it is held briefly and never across a notifier or store call.
type Service struct {
	// repo handles persistent storage of the alarm collection.
	repo repo.Repository
	// notifier registers and cancels one-shot wake-ups.
	notifier notifier.Notifier
	// tolerance is the premature-fire window; zero disables the check.
	tolerance time.Duration
	// now is the clock source, replaceable in tests.
	now func() time.Time

	// mu guards records, tokens, ops and record field writes.
	mu sync.RWMutex
	// records holds the alarms by id.
	records map[string]*domain.Record
	// tokens indexes the owning alarm id by live registration token.
	tokens map[string]string
	// ops serializes operations per alarm id.
	ops map[string]*sync.Mutex

	// events carries fire events to the daemon.
	events chan FireEvent
}

// Option customizes a Service.
type Option func(*Service)

// WithTolerance sets the premature-fire tolerance window.
// Zero disables the check entirely.
func WithTolerance(d time.Duration) Option {
	return func(s *Service) {
		s.tolerance = d
	}
}

// WithClock replaces the wall clock. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New loads the alarm collection from the repository and returns a manager
// over it. A missing alarms file yields an empty collection.
func New(ctx context.Context, repository repo.Repository, n notifier.Notifier, opts ...Option) (*Service, error) {
	s := &Service{
		repo:      repository,
		notifier:  n,
		tolerance: 30 * time.Second,
		now:       time.Now,
		records:   make(map[string]*domain.Record),
		tokens:    make(map[string]string),
		ops:       make(map[string]*sync.Mutex),
		events:    make(chan FireEvent, defaultEventBuffer),
	}

	for _, opt := range opts {
		opt(s)
	}

	stored, err := repository.LoadAll(ctx)
	switch {
	case err == nil:
		for _, record := range stored {
			// Tokens from a previous process are dead; RescheduleAll mints new ones.
			record.PendingTrigger = ""
			record.IsSnoozeInstance = false
			s.records[record.ID] = record
		}
	case errors.Is(err, repo.ErrNotFound):
		// First run, start empty.
	default:
		return nil, fmt.Errorf("load alarms: %w", err)
	}

	return s, nil
}

// Events returns the channel on which fire events are surfaced.
func (s *Service) Events() <-chan FireEvent {
	return s.events
}

// lockFor returns the mutex serializing operations for one alarm id.
func (s *Service) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.ops[id]
	if !ok {
		lock = new(sync.Mutex)
		s.ops[id] = lock
	}

	return lock
}

// get returns the live record for id, or ErrAlarmNotFound.
func (s *Service) get(id string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlarmNotFound, id)
	}

	return record, nil
}

// clearPending drops the record's registration from the token index and
// returns the old token, empty when the alarm was not armed.
func (s *Service) clearPending(record *domain.Record) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := record.PendingTrigger
	if token != "" {
		delete(s.tokens, token)
		record.PendingTrigger = ""
		record.IsSnoozeInstance = false
	}

	return token
}

// setPending stores a fresh registration token on the record and indexes it.
func (s *Service) setPending(record *domain.Record, token string, isSnooze bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.PendingTrigger = token
	record.IsSnoozeInstance = isSnooze
	s.tokens[token] = record.ID
}

// mutate applies field writes under the service mutex.
func (s *Service) mutate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn()
}

// arm cancels any outstanding registration for the record and schedules a
// new one at triggerAt. Cancel-before-schedule keeps at most one live
// registration per alarm; a failed schedule leaves the alarm cleanly
// disarmed, never double-armed. Caller holds the per-id lock.
func (s *Service) arm(ctx context.Context, record *domain.Record, triggerAt time.Time, isSnooze bool) error {
	if old := s.clearPending(record); old != "" {
		s.notifier.Cancel(ctx, old)
	}

	token, err := s.notifier.Schedule(ctx, triggerAt, notifier.Payload{
		AlarmID:           record.ID,
		ExpectedTriggerAt: triggerAt,
		IsSnooze:          isSnooze,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSchedulingFailed, err)
	}

	s.setPending(record, token, isSnooze)

	return nil
}

// persist snapshots the collection and writes it through the repository.
func (s *Service) persist(ctx context.Context) error {
	s.mu.RLock()

	snapshot := make([]*domain.Record, 0, len(s.records))
	for _, record := range s.records {
		snapshot = append(snapshot, record.Clone())
	}

	s.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].ID < snapshot[j].ID })

	if err := s.repo.SaveAll(ctx, snapshot); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}

	return nil
}

// Create validates the input, stores the new alarm and arms it when
// enabled. If the notifier rejects the registration the record is still
// created, left disabled, and ErrSchedulingFailed is returned so the
// caller can surface it: user data is never silently dropped.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Record, error) {
	now := s.now()
	record := &domain.Record{
		ID:             uuid.NewString(),
		TimeOfDay:      input.TimeOfDay,
		RepeatDays:     input.RepeatDays.Clone(),
		Enabled:        input.Enabled,
		SnoozeEnabled:  input.SnoozeEnabled,
		SnoozeDuration: input.SnoozeDuration,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if record.SnoozeEnabled && record.SnoozeDuration == 0 {
		record.SnoozeDuration = domain.DefaultSnoozeDuration
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	lock := s.lockFor(record.ID)
	lock.Lock()
	defer lock.Unlock()

	// Insert before arming so a fire callback can resolve the id.
	s.mutate(func() {
		s.records[record.ID] = record
	})

	var schedulingErr error

	if record.Enabled {
		triggerAt, err := domain.NextTrigger(record.TimeOfDay, record.RepeatDays, now)
		if err == nil {
			err = s.arm(ctx, record, triggerAt, false)
		}

		if err != nil {
			logger.ErrorKV(ctx, "Failed to arm new alarm", "alarm_id", record.ID, "error", err)

			s.mutate(func() {
				record.Enabled = false
			})

			schedulingErr = err
		}
	}

	if err := s.persist(ctx); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Alarm created",
		"alarm_id", record.ID, "time_of_day", record.TimeOfDay.String(),
		"repeat", record.RepeatDays.String(), "enabled", record.Enabled)

	return record.Clone(), schedulingErr
}

// SetEnabled transitions an alarm between Disabled and Armed.
func (s *Service) SetEnabled(ctx context.Context, id string, enabled bool) (*domain.Record, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.get(id)
	if err != nil {
		return nil, err
	}

	if enabled {
		triggerAt, err := domain.NextTrigger(record.TimeOfDay, record.RepeatDays, s.now())
		if err != nil {
			return nil, err
		}

		if err := s.arm(ctx, record, triggerAt, false); err != nil {
			return nil, err
		}
	} else if old := s.clearPending(record); old != "" {
		s.notifier.Cancel(ctx, old)
	}

	s.mutate(func() {
		record.Enabled = enabled
		record.UpdatedAt = s.now()
	})

	if err := s.persist(ctx); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Alarm toggled", "alarm_id", id, "enabled", enabled)

	return record.Clone(), nil
}

// Edit applies the non-nil updates as a cancel-old/schedule-new cycle, so
// editing twice in a row still leaves exactly one live registration.
func (s *Service) Edit(ctx context.Context, id string, updates UpdateInput) (*domain.Record, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.get(id)
	if err != nil {
		return nil, err
	}

	// Validate against a scratch copy first so a bad update leaves the
	// record untouched.
	updated := record.Clone()
	applyUpdates(updated, updates)

	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if old := s.clearPending(record); old != "" {
		s.notifier.Cancel(ctx, old)
	}

	s.mutate(func() {
		applyUpdates(record, updates)
		record.UpdatedAt = s.now()
	})

	var schedulingErr error

	if record.Enabled {
		triggerAt, err := domain.NextTrigger(record.TimeOfDay, record.RepeatDays, s.now())
		if err == nil {
			err = s.arm(ctx, record, triggerAt, false)
		}

		if err != nil {
			// Same contract as Create: the edit sticks, but an alarm that
			// could not be armed is never left looking armed.
			logger.ErrorKV(ctx, "Failed to arm edited alarm", "alarm_id", id, "error", err)

			s.mutate(func() {
				record.Enabled = false
			})

			schedulingErr = err
		}
	}

	if err := s.persist(ctx); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Alarm updated", "alarm_id", id, "state", record.State())

	return record.Clone(), schedulingErr
}

// applyUpdates copies the non-nil update fields onto the record.
func applyUpdates(record *domain.Record, updates UpdateInput) {
	if updates.TimeOfDay != nil {
		record.TimeOfDay = *updates.TimeOfDay
	}

	if updates.RepeatDays != nil {
		record.RepeatDays = updates.RepeatDays.Clone()
	}

	if updates.Enabled != nil {
		record.Enabled = *updates.Enabled
	}

	if updates.SnoozeEnabled != nil {
		record.SnoozeEnabled = *updates.SnoozeEnabled
	}

	if updates.SnoozeDuration != nil {
		record.SnoozeDuration = *updates.SnoozeDuration
	}
}

// Delete cancels any pending trigger and removes the alarm.
func (s *Service) Delete(ctx context.Context, id string) error {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.get(id)
	if err != nil {
		return err
	}

	if old := s.clearPending(record); old != "" {
		s.notifier.Cancel(ctx, old)
	}

	s.mutate(func() {
		delete(s.records, id)
		delete(s.ops, id)
	})

	if err := s.persist(ctx); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Alarm deleted", "alarm_id", id)

	return nil
}

// Snooze re-arms the alarm a fixed duration from now as a snooze instance,
// independent of the alarm's own time-of-day.
func (s *Service) Snooze(ctx context.Context, id string, durationMinutes int) (*domain.Record, error) {
	if durationMinutes <= 0 {
		durationMinutes = domain.DefaultSnoozeDuration
	}

	if durationMinutes < domain.MinSnoozeDuration || durationMinutes > domain.MaxSnoozeDuration {
		return nil, fmt.Errorf("snooze duration %d out of range [%d, %d]",
			durationMinutes, domain.MinSnoozeDuration, domain.MaxSnoozeDuration)
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.get(id)
	if err != nil {
		return nil, err
	}

	triggerAt := s.now().Add(time.Duration(durationMinutes) * time.Minute)

	if err := s.arm(ctx, record, triggerAt, true); err != nil {
		return nil, err
	}

	s.mutate(func() {
		record.UpdatedAt = s.now()
	})

	if err := s.persist(ctx); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Alarm snoozed",
		"alarm_id", id, "duration_minutes", durationMinutes, "trigger_at", triggerAt)

	return record.Clone(), nil
}

// Dismiss acknowledges a fired alarm. A repeating alarm is re-armed for its
// next occurrence; a one-time alarm is disabled.
func (s *Service) Dismiss(ctx context.Context, id string) (*domain.Record, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.get(id)
	if err != nil {
		return nil, err
	}

	if old := s.clearPending(record); old != "" {
		s.notifier.Cancel(ctx, old)
	}

	if !record.RepeatDays.IsEmpty() && record.Enabled {
		triggerAt, err := domain.NextTrigger(record.TimeOfDay, record.RepeatDays, s.now())
		if err != nil {
			return nil, err
		}

		if err := s.arm(ctx, record, triggerAt, false); err != nil {
			return nil, err
		}
	} else {
		s.mutate(func() {
			record.Enabled = false
		})
	}

	s.mutate(func() {
		record.UpdatedAt = s.now()
	})

	if err := s.persist(ctx); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Alarm dismissed", "alarm_id", id, "state", record.State())

	return record.Clone(), nil
}

// HandleFire is the notifier callback. It validates that the invocation
// plausibly corresponds to its intended trigger instant, consumes the
// token and surfaces a fire event. Stale tokens and implausibly premature
// callbacks are ignored silently: some platforms have been seen invoking
// the callback at registration time instead of the scheduled time.
func (s *Service) HandleFire(token string, payload notifier.Payload, invokedAt time.Time) {
	ctx := logger.WithKV(context.Background(), "token", token)

	s.mu.RLock()
	id := s.tokens[token]
	s.mu.RUnlock()

	if id == "" {
		logger.DebugKV(ctx, "Ignoring fire for unknown token")

		return
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.get(id)
	if err != nil || record.PendingTrigger != token {
		// The alarm was deleted or re-armed while the callback was in flight.
		logger.DebugKV(ctx, "Ignoring stale fire", "alarm_id", id)

		return
	}

	if s.tolerance > 0 && invokedAt.Before(payload.ExpectedTriggerAt.Add(-s.tolerance)) {
		logger.WarnKV(ctx, "Ignoring implausibly premature fire",
			"alarm_id", id,
			"expected_at", payload.ExpectedTriggerAt,
			"invoked_at", invokedAt)

		return
	}

	s.clearPending(record)

	if err := s.persist(ctx); err != nil {
		logger.ErrorKV(ctx, "Failed to persist fired alarm", "alarm_id", id, "error", err)
	}

	event := FireEvent{
		Alarm:    record.Clone(),
		Token:    token,
		IsSnooze: payload.IsSnooze,
		FiredAt:  invokedAt,
	}

	select {
	case s.events <- event:
		logger.InfoKV(ctx, "Alarm fired", "alarm_id", id, "is_snooze", payload.IsSnooze)
	default:
		logger.WarnKV(ctx, "Dropping fire event, consumer too slow", "alarm_id", id)
	}
}

// RescheduleAll re-arms every enabled alarm and returns the id to token map
// of successful registrations. Per-alarm failures are logged, the alarm is
// left disabled, and the batch continues: one bad alarm never blocks
// restoring the others. Used at process startup.
func (s *Service) RescheduleAll(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()

	ids := make([]string, 0, len(s.records))
	for id, record := range s.records {
		if record.Enabled {
			ids = append(ids, id)
		}
	}

	s.mu.RUnlock()

	var (
		group, groupCtx = errgroup.WithContext(ctx)
		resultMu        sync.Mutex
		result          = make(map[string]string, len(ids))
	)

	for _, id := range ids {
		group.Go(func() error {
			lock := s.lockFor(id)
			lock.Lock()
			defer lock.Unlock()

			record, err := s.get(id)
			if err != nil {
				// Deleted since the snapshot.
				return nil
			}

			triggerAt, err := domain.NextTrigger(record.TimeOfDay, record.RepeatDays, s.now())
			if err == nil {
				err = s.arm(groupCtx, record, triggerAt, false)
			}

			if err != nil {
				logger.ErrorKV(groupCtx, "Failed to reschedule alarm", "alarm_id", id, "error", err)

				s.mutate(func() {
					record.Enabled = false
				})

				return nil
			}

			resultMu.Lock()
			result[id] = record.PendingTrigger
			resultMu.Unlock()

			return nil
		})
	}

	// Workers never return errors; Wait is used as a join point.
	_ = group.Wait()

	if err := s.persist(ctx); err != nil {
		return result, err
	}

	logger.InfoKV(ctx, "Alarms rescheduled", "armed", len(result), "candidates", len(ids))

	return result, nil
}

// GetByID returns a clone of the alarm with the given id.
func (s *Service) GetByID(_ context.Context, id string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlarmNotFound, id)
	}

	return record.Clone(), nil
}

// ListAll returns clones of every alarm, ordered by time-of-day then id.
func (s *Service) ListAll(_ context.Context) []*domain.Record {
	s.mu.RLock()

	result := make([]*domain.Record, 0, len(s.records))
	for _, record := range s.records {
		result = append(result, record.Clone())
	}

	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.TimeOfDay != b.TimeOfDay {
			return a.TimeOfDay.Hour*60+a.TimeOfDay.Minute < b.TimeOfDay.Hour*60+b.TimeOfDay.Minute
		}

		return a.ID < b.ID
	})

	return result
}
