package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alarmd/alarmd/internal/logger"
)

// Timer is an in-process Notifier backed by time.AfterFunc.
// It is the wake-up source for the daemon; tokens are uuid strings.
type Timer struct {
	// mu protects the handler and the registration map.
	mu sync.Mutex
	// handler receives fire callbacks. Registered once at startup.
	handler FireHandler
	// pending maps tokens to their armed timers.
	pending map[string]*time.Timer
}

// NewTimer creates an empty timer notifier. SetHandler must be called
// before the first registration fires.
func NewTimer() *Timer {
	return &Timer{
		pending: make(map[string]*time.Timer),
	}
}

// SetHandler registers the fire callback. It is meant to be called once,
// during process startup, before any alarms are armed.
func (t *Timer) SetHandler(handler FireHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.handler = handler
}

// Schedule arms a one-shot timer for triggerAt and returns its token.
// A triggerAt in the past fires immediately; the scheduler's tolerance
// check decides whether such a callback is plausible.
func (t *Timer) Schedule(ctx context.Context, triggerAt time.Time, payload Payload) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", err
	}

	token := uuid.NewString()

	t.mu.Lock()
	t.pending[token] = time.AfterFunc(time.Until(triggerAt), func() {
		t.fire(token, payload)
	})
	t.mu.Unlock()

	logger.DebugKV(ctx, "Wake-up registered",
		"token", token, "alarm_id", payload.AlarmID, "trigger_at", triggerAt)

	return token, nil
}

// Cancel stops the timer identified by token. Unknown tokens are a no-op.
func (t *Timer) Cancel(ctx context.Context, token string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	timer, ok := t.pending[token]
	if !ok {
		return
	}

	timer.Stop()
	delete(t.pending, token)

	logger.DebugKV(ctx, "Wake-up cancelled", "token", token)
}

// Close stops every outstanding timer. Used on daemon shutdown.
func (t *Timer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for token, timer := range t.pending {
		timer.Stop()
		delete(t.pending, token)
	}
}

// fire removes the registration and routes the callback to the handler.
// It runs on the timer goroutine.
func (t *Timer) fire(token string, payload Payload) {
	t.mu.Lock()

	if _, ok := t.pending[token]; !ok {
		// Lost the race against Cancel.
		t.mu.Unlock()

		return
	}

	delete(t.pending, token)
	handler := t.handler
	t.mu.Unlock()

	if handler != nil {
		handler(token, payload, time.Now())
	}
}
