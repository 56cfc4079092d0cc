package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alarmd/alarmd/internal/config"
	domain "github.com/alarmd/alarmd/internal/domain/alarm"
	"github.com/alarmd/alarmd/internal/logger"
	"github.com/alarmd/alarmd/internal/notifier"
	repository "github.com/alarmd/alarmd/internal/repository/alarms"
	"github.com/alarmd/alarmd/internal/service/scheduler"
)

// Options controls the alarmd daemon process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// AlarmsFile provides an optional alarms file override.
	AlarmsFile string
}

// Run starts the daemon and blocks until the context is cancelled.
// It restores every enabled alarm, then consumes fire events: a ringing
// alarm that is not acknowledged within the ring timeout is auto-snoozed
// while its snooze policy allows, and dismissed otherwise.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alarmd")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if cfg.LogLevel != "" {
		if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
			logger.SetLevel(level)
		}
	}

	// Use alarms file from config unless overridden by command line option.
	alarmsFile := cfg.AlarmsFile
	if opts.AlarmsFile != "" {
		alarmsFile = opts.AlarmsFile
	}

	repo := repository.NewFileRepository(alarmsFile)

	timers := notifier.NewTimer()
	defer timers.Close()

	svc, err := scheduler.New(ctx, repo, timers, scheduler.WithTolerance(cfg.Tolerance))
	if err != nil {
		return fmt.Errorf("initialise scheduler: %w", err)
	}

	// The fire callback is registered once, before any alarm is armed.
	timers.SetHandler(svc.HandleFire)

	tokens, err := svc.RescheduleAll(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Failed to persist restored alarms", "error", err)
	}

	logger.InfoKV(ctx, "Alarm daemon started",
		"alarms_file", alarmsFile, "armed", len(tokens), "tolerance", cfg.Tolerance)

	ringer := &ringer{
		service:        svc,
		ringTimeout:    cfg.RingTimeout,
		maxAutoSnoozes: cfg.MaxAutoSnoozes,
		snoozeCounts:   make(map[string]int),
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Alarm daemon stopping")

			return nil
		case event := <-svc.Events():
			go ringer.ring(ctx, event)
		}
	}
}

// ringer resolves unacknowledged rings into snooze or dismiss.
type ringer struct {
	// service is the lifecycle manager the ring outcome is applied to.
	service *scheduler.Service
	// ringTimeout is how long an alarm rings before it is resolved.
	ringTimeout time.Duration
	// maxAutoSnoozes caps consecutive auto-snoozes per alarm.
	maxAutoSnoozes int

	// mu protects snoozeCounts.
	mu sync.Mutex
	// snoozeCounts tracks consecutive auto-snoozes by alarm id.
	snoozeCounts map[string]int
}

// ring announces the fired alarm, waits out the ring timeout and applies
// the snooze-or-dismiss policy.
func (r *ringer) ring(ctx context.Context, event scheduler.FireEvent) {
	record := event.Alarm

	logger.InfoKV(ctx, "Alarm ringing",
		"alarm_id", record.ID,
		"time_of_day", record.TimeOfDay.String(),
		"is_snooze", event.IsSnooze)

	select {
	case <-ctx.Done():
		return
	case <-time.After(r.ringTimeout):
	}

	if r.shouldSnooze(record) {
		if _, err := r.service.Snooze(ctx, record.ID, record.SnoozeDuration); err != nil {
			logger.ErrorKV(ctx, "Failed to snooze alarm", "alarm_id", record.ID, "error", err)
		}

		return
	}

	r.resetCount(record.ID)

	if _, err := r.service.Dismiss(ctx, record.ID); err != nil {
		logger.ErrorKV(ctx, "Failed to dismiss alarm", "alarm_id", record.ID, "error", err)
	}
}

// shouldSnooze consumes one auto-snooze budget entry when available.
func (r *ringer) shouldSnooze(record *domain.Record) bool {
	if !record.SnoozeEnabled {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.snoozeCounts[record.ID] >= r.maxAutoSnoozes {
		return false
	}

	r.snoozeCounts[record.ID]++

	return true
}

// resetCount clears the auto-snooze budget after a dismissal.
func (r *ringer) resetCount(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.snoozeCounts, id)
}
