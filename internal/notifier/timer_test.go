package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fired captures a single fire callback for assertions.
type fired struct {
	token     string
	payload   Payload
	invokedAt time.Time
}

// TestTimer_ScheduleFires arms a short timer and waits for the callback.
func TestTimer_ScheduleFires(t *testing.T) {
	t.Parallel()

	timer := NewTimer()
	defer timer.Close()

	events := make(chan fired, 1)
	timer.SetHandler(func(token string, payload Payload, invokedAt time.Time) {
		events <- fired{token: token, payload: payload, invokedAt: invokedAt}
	})

	payload := Payload{AlarmID: "a1", ExpectedTriggerAt: time.Now().Add(10 * time.Millisecond)}

	token, err := timer.Schedule(context.Background(), payload.ExpectedTriggerAt, payload)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	select {
	case event := <-events:
		require.Equal(t, token, event.token)
		require.Equal(t, payload.AlarmID, event.payload.AlarmID)
		require.False(t, event.invokedAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

// TestTimer_CancelIsIdempotent cancels twice and after fire without error.
func TestTimer_CancelIsIdempotent(t *testing.T) {
	t.Parallel()

	timer := NewTimer()
	defer timer.Close()

	events := make(chan fired, 1)
	timer.SetHandler(func(token string, payload Payload, invokedAt time.Time) {
		events <- fired{token: token}
	})

	payload := Payload{AlarmID: "a1", ExpectedTriggerAt: time.Now().Add(time.Hour)}

	token, err := timer.Schedule(context.Background(), payload.ExpectedTriggerAt, payload)
	require.NoError(t, err)

	timer.Cancel(context.Background(), token)
	timer.Cancel(context.Background(), token)
	timer.Cancel(context.Background(), "unknown-token")

	select {
	case <-events:
		t.Fatal("cancelled timer fired")
	case <-time.After(50 * time.Millisecond):
	}
}

// TestTimer_RejectsInvalidPayload enforces the payload schema at the boundary.
func TestTimer_RejectsInvalidPayload(t *testing.T) {
	t.Parallel()

	timer := NewTimer()
	defer timer.Close()

	_, err := timer.Schedule(context.Background(), time.Now(), Payload{})
	require.Error(t, err)

	_, err = timer.Schedule(context.Background(), time.Now(), Payload{AlarmID: "a1"})
	require.Error(t, err)
}
